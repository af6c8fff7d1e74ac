package initialize

import (
	"flag"
	"fmt"
	"strings"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/config"
	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

var (
	Conf string
	Act  string
)

func init() {
	flag.StringVar(&Conf, "c", "", "choose config file.")
	flag.StringVar(&Act, "a", "", `one-shot action instead of serving; "retune": adjust thresholds; "archive": archive closed conversations; "sync": embed corpus changes; "clear": delete expired logs;`)
}

// New loads the config file, installs the hot-reload watcher and returns the
// initializer.
func New() *Initializer {
	var configPath string
	if gin.Mode() != gin.TestMode {
		flag.Parse()
		if Conf != "" {
			configPath = Conf
		}
	}
	if configPath == "" {
		configPath = `config.yaml`
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		panic("reading config failed: " + configPath + ": " + err.Error())
	}

	if err := v.Unmarshal(global.Config); err != nil {
		panic("parsing config failed: " + err.Error())
	}
	handleConfig(global.Config)

	initializer := &Initializer{}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("config file changed:", e.Name)
		oldConfig := global.Config.DeepCopy()
		if err := v.Unmarshal(global.Config); err != nil {
			fmt.Println("re-parsing config failed:", err)
			return
		}
		handleConfig(global.Config)
		initializer.HandleConfigChange(oldConfig, global.Config)
	})

	return initializer
}

// handleConfig fills in defaults for everything the config file leaves out.
func handleConfig(c *config.Config) {
	c.StaticDir = strings.TrimRight(c.StaticDir, "/")

	if c.ProjectName == "" {
		c.ProjectName = "strata-triage"
	}
	if c.GinAddr == "" {
		c.GinAddr = ":80"
	}
	if c.GinLogPath == "" {
		c.GinLogPath = "log/gin.log"
	}
	if c.RunLogPath == "" {
		c.RunLogPath = "log/run.log"
	}
	if c.LogRetentionDays == 0 {
		c.LogRetentionDays = 30
	}
	if c.Tz == "" {
		c.Tz = "Australia/Sydney"
	}
	if len(c.Cors) == 0 {
		c.Cors = []string{"*"}
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite3"
	}
	if c.Database.SqlitePath == "" {
		c.Database.SqlitePath = "data.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Redis.LockPrefix == "" {
		c.Redis.LockPrefix = "triage:lock:"
	}
	if c.Redis.LockExpiry == 0 {
		c.Redis.LockExpiry = 30
	}
	if c.Redis.ContextTTL == 0 {
		c.Redis.ContextTTL = 3600
	}
	if c.Chatwoot.Url == "" {
		c.Chatwoot.Url = "http://127.0.0.1:8080"
	}
	if c.Chatwoot.AccountId == 0 {
		c.Chatwoot.AccountId = 1
	}
	if c.Chatwoot.AgentUserID == 0 {
		c.Chatwoot.AgentUserID = 2
	}
	for i := range c.Llm {
		if c.Llm[i].Timeout == 0 {
			c.Llm[i].Timeout = 30
		}
	}
	if c.LlmEmbedding.Timeout == 0 {
		c.LlmEmbedding.Timeout = 5
	}
	if c.LlmEmbedding.BatchTimeout == 0 {
		c.LlmEmbedding.BatchTimeout = 60
	}
	if c.LlmEmbedding.Dimension == 0 {
		c.LlmEmbedding.Dimension = 1024
	}
	if c.VectorDb.KnowledgeCollection == "" {
		c.VectorDb.KnowledgeCollection = "strata_knowledge"
	}
	if c.VectorDb.TrainingCollection == "" {
		c.VectorDb.TrainingCollection = "strata_training"
	}

	handleTriageConfig(&c.Triage)
}

// handleTriageConfig ships the reference tuning. Every value can be
// overridden per deployment; the retuner only ever moves the score bands
// inside [ThresholdFloor, ThresholdCeiling].
func handleTriageConfig(t *config.Triage) {
	if t.RrfK == 0 {
		t.RrfK = 60
	}
	if t.CandidateWindow == 0 {
		t.CandidateWindow = 10
	}
	if t.RetrieveLimit == 0 {
		t.RetrieveLimit = 5
	}

	if t.AutoRespondMin == 0 {
		t.AutoRespondMin = 0.85
	}
	if t.AutoRefineMin == 0 {
		t.AutoRefineMin = 0.75
	}
	if t.DraftMin == 0 {
		t.DraftMin = 0.50
	}

	if t.AssistedFloor == 0 {
		t.AssistedFloor = 30
	}
	if t.AutonomousFloor == 0 {
		t.AutonomousFloor = 100
	}
	if t.ThresholdFloor == 0 {
		t.ThresholdFloor = 0.70
	}
	if t.ThresholdCeiling == 0 {
		t.ThresholdCeiling = 0.95
	}
	if t.RelaxAbove == 0 {
		t.RelaxAbove = 0.95
	}
	if t.TightenBelow == 0 {
		t.TightenBelow = 0.80
	}
	if t.RelaxStep == 0 {
		t.RelaxStep = 0.02
	}
	if t.TightenStep == 0 {
		t.TightenStep = 0.03
	}
	if t.ExperimentFraction == 0 {
		t.ExperimentFraction = 20
	}

	if t.PositiveDelta == 0 {
		t.PositiveDelta = 0.05
	}
	if t.NegativeDelta == 0 {
		t.NegativeDelta = -0.15
	}
	if t.NeutralDelta == 0 {
		t.NeutralDelta = -0.08
	}
	if t.EscalationFloor == 0 {
		t.EscalationFloor = 0.60
	}
	if t.MaxFailedTurns == 0 {
		t.MaxFailedTurns = 3
	}
	if t.RefineIterations == 0 {
		t.RefineIterations = 3
	}

	if len(t.EscalationKeywords) == 0 {
		t.EscalationKeywords = []string{
			"speak to a human", "real person", "talk to someone",
			"strata manager", "speak to the manager", "call me",
		}
	}
	if len(t.FrustrationKeywords) == 0 {
		t.FrustrationKeywords = []string{
			"ridiculous", "useless", "fed up", "sick of", "third time",
			"still waiting", "nobody has", "unacceptable",
		}
	}
	if len(t.DissatisfactionKeywords) == 0 {
		t.DissatisfactionKeywords = []string{
			"doesn't help", "does not help", "not what i asked",
			"didn't answer", "that's wrong", "not right", "no, i",
		}
	}
	if len(t.SatisfactionKeywords) == 0 {
		t.SatisfactionKeywords = []string{
			"thank", "thanks", "that helps", "perfect", "great",
			"sorted", "all good", "resolved",
		}
	}
	if len(t.ClarificationKeywords) == 0 {
		t.ClarificationKeywords = []string{
			"also", "to clarify", "more detail", "what about",
			"another question", "forgot to mention",
		}
	}
	if len(t.CategoryKeywords) == 0 {
		t.CategoryKeywords = map[string][]string{
			"maintenance":      {"repair", "leak", "broken", "damage", "lift", "garage door", "common property"},
			"levies_finance":   {"levy", "levies", "invoice", "payment", "arrears", "fee", "fund"},
			"bylaws_disputes":  {"by-law", "bylaw", "noise", "parking", "pet", "neighbour", "dispute"},
			"meetings_records": {"agm", "meeting", "minutes", "agenda", "records", "roll", "proxy"},
			"insurance":        {"insurance", "claim", "policy", "excess", "valuation"},
		}
	}
	if len(t.ManualReviewCategories) == 0 {
		t.ManualReviewCategories = []string{"levies_finance", "insurance"}
	}

	if t.RetryAttempts == 0 {
		t.RetryAttempts = 3
	}
	if t.RetryBackoffMs == 0 {
		t.RetryBackoffMs = 500
	}
	if t.AsyncJobTimeout == 0 {
		t.AsyncJobTimeout = 120
	}
}
