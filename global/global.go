package global

import (
	"sync/atomic"
	"time"

	"github.com/strataops/strata-triage/internal/chatwoot"
	"github.com/strataops/strata-triage/internal/embedding"
	"github.com/strataops/strata-triage/internal/llm"
	"github.com/strataops/strata-triage/internal/mcp"
	"github.com/strataops/strata-triage/internal/oss"
	"github.com/strataops/strata-triage/internal/redis"
	"github.com/strataops/strata-triage/internal/vector"
	"github.com/strataops/strata-triage/model/config"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var Version = "dev"

// Global singletons. Assigned during initialization and by the config
// reloader; business logic must not reassign them.
var (
	Config *config.Config = new(config.Config)
	Log    *logrus.Logger
	Tz     *time.Location

	Llm          map[llm.LlmSize]*openai.Client = make(map[llm.LlmSize]*openai.Client, 3)
	LlmEmbedding *openai.Client

	ChatwootService  chatwoot.Service
	LlmService       llm.Service
	EmbeddingService embedding.Service
	VectorDb         vector.Service
	RedisClient      redis.Service
	McpService       mcp.Service
	OssService       oss.Service
)

// Thresholds is the live routing-threshold snapshot. Routing reads it with
// one atomic load so a concurrent retune never yields a half-updated view.
// The retuner builds a complete replacement and swaps the pointer; snapshots
// are never mutated in place.
var Thresholds atomic.Pointer[ThresholdSnapshot]

// ThresholdSet is one set of routing score bands.
type ThresholdSet struct {
	AutoRespondMin float64
	AutoRefineMin  float64
	DraftMin       float64
	// RetunedAt is the unix time of the last adjustment, 0 for config values.
	RetunedAt int64
}

// ThresholdSnapshot carries the bands in force: a default set plus the
// per-category sets the retuner has adjusted.
type ThresholdSnapshot struct {
	Default     ThresholdSet
	PerCategory map[string]ThresholdSet
}

// For returns the band set of a category, falling back to the default.
func (s *ThresholdSnapshot) For(category string) ThresholdSet {
	if set, ok := s.PerCategory[category]; ok {
		return set
	}
	return s.Default
}
