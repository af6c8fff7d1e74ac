package user

import (
	"fmt"
	"sort"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/dto"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RouteInput is everything one routing evaluation reads. Thresholds and
// phase data are resolved inside Route so the snapshot is captured exactly
// once per decision.
type RouteInput struct {
	ConversationID uint
	Category       string
	Severity       enum.Severity
	Complexity     int
	TopScore       float64
	TopEntryKey    string
	// ManualReview forces human sign-off for the category regardless of
	// score.
	ManualReview bool
}

// routeEnv is the snapshot of mutable state a decision is evaluated
// against.
type routeEnv struct {
	thresholds     global.ThresholdSet
	validatedCount int64
	phase          enum.Phase
	experiment     bool
}

// routingRule is one (predicate, result) pair of the cascade.
type routingRule struct {
	match  func(in *RouteInput, env *routeEnv) bool
	path   enum.RoutePath
	reason enum.RouteReason
}

type RoutingService interface {
	// Route evaluates the cascade, persists the audit record and returns
	// the decision.
	Route(in RouteInput) (*db.RoutingDecision, error)
	// Override appends a decision carrying the operator's path. The computed
	// path stays on the record for drift analysis.
	Override(decisionUuid string, path enum.RoutePath, operator string) error
	// LatestDecision returns the newest decision of a ticket.
	LatestDecision(conversationID uint) (*db.RoutingDecision, error)
	// OverrideStats reports per path how often the cascade decided and how
	// often an operator redirected it, since a unix timestamp.
	OverrideStats(since int64) ([]dto.RoutingPathStats, error)
}

type routingService struct {
	learning   LearningService
	decisionDb *dao.DecisionDb
}

func NewRoutingService(learning LearningService) *routingService {
	return &routingService{
		learning:   learning,
		decisionDb: &dao.DecisionDb{},
	}
}

// cascade is evaluated top to bottom; the first matching rule wins.
// Escalation sits first so no score can override a safety-critical ticket,
// and the unconditional Deep Research rule at the bottom makes the cascade
// total.
var cascade = []routingRule{
	{
		match: func(in *RouteInput, env *routeEnv) bool {
			return in.Severity == enum.SeverityCritical
		},
		path:   enum.PathImmediateEscalation,
		reason: enum.ReasonCriticalSeverity,
	},
	{
		match: func(in *RouteInput, env *routeEnv) bool {
			return in.Complexity > 4
		},
		path:   enum.PathImmediateEscalation,
		reason: enum.ReasonHighComplexity,
	},
	{
		match: func(in *RouteInput, env *routeEnv) bool {
			return in.TopScore > env.thresholds.AutoRespondMin &&
				env.validatedCount > int64(global.Config.Triage.AutonomousFloor) &&
				!in.ManualReview
		},
		path:   enum.PathAutoRespond,
		reason: enum.ReasonHighConfidence,
	},
	{
		// A flagged category with an auto-respond score still gets the
		// match surfaced, as a draft behind human approval.
		match: func(in *RouteInput, env *routeEnv) bool {
			return in.TopScore > env.thresholds.AutoRespondMin &&
				env.validatedCount > int64(global.Config.Triage.AutonomousFloor) &&
				in.ManualReview
		},
		path:   enum.PathGenerateDraft,
		reason: enum.ReasonManualReviewFlag,
	},
	{
		match: func(in *RouteInput, env *routeEnv) bool {
			return in.TopScore >= env.thresholds.AutoRefineMin &&
				in.TopScore <= env.thresholds.AutoRespondMin &&
				env.validatedCount > int64(global.Config.Triage.AutonomousFloor)
		},
		path:   enum.PathAutoRefine,
		reason: enum.ReasonMediumConfidence,
	},
	{
		match: func(in *RouteInput, env *routeEnv) bool {
			return in.TopScore >= env.thresholds.DraftMin &&
				in.TopScore < env.thresholds.AutoRefineMin &&
				env.validatedCount > int64(global.Config.Triage.AssistedFloor)
		},
		path:   enum.PathGenerateDraft,
		reason: enum.ReasonLowConfidence,
	},
	{
		match: func(in *RouteInput, env *routeEnv) bool {
			return in.TopScore < env.thresholds.DraftMin
		},
		path:   enum.PathDeepResearch,
		reason: enum.ReasonNoAdequateMatch,
	},
	{
		// Score band and sample count disagree; research is the safest
		// fallback.
		match:  func(in *RouteInput, env *routeEnv) bool { return true },
		path:   enum.PathDeepResearch,
		reason: enum.ReasonInsufficientData,
	},
}

// evaluate runs the cascade against a fixed environment. Total by
// construction.
func evaluate(in *RouteInput, env *routeEnv) (enum.RoutePath, enum.RouteReason) {
	for _, rule := range cascade {
		if rule.match(in, env) {
			return rule.path, rule.reason
		}
	}
	// Unreachable: the last rule always matches.
	return enum.PathDeepResearch, enum.ReasonInsufficientData
}

func (s *routingService) Route(in RouteInput) (*db.RoutingDecision, error) {
	env := &routeEnv{
		experiment:     s.learning.InExperiment(in.ConversationID),
		validatedCount: s.learning.ValidatedCount(in.Category),
		phase:          s.learning.PhaseFor(in.Category),
	}
	// One snapshot read per decision; a concurrent retune is invisible.
	env.thresholds = s.learning.ThresholdsFor(in.Category, env.experiment)

	path, reason := evaluate(&in, env)

	decision := &db.RoutingDecision{
		Uuid:           uuid.NewString(),
		ConversationID: in.ConversationID,
		Path:           path,
		ComputedPath:   path,
		RetrievalScore: in.TopScore,
		Phase:          env.phase,
		Reason:         reason,
		Category:       in.Category,
		EntryKey:       in.TopEntryKey,
		Experiment:     env.experiment,
	}

	err := dao.Tx(func(tx *sqlx.Tx) error {
		return s.decisionDb.Insert(decision, tx)
	})
	if err != nil {
		return nil, err
	}

	global.Log.WithFields(map[string]interface{}{
		"conversation_id": in.ConversationID,
		"path":            path,
		"reason":          reason,
		"score":           in.TopScore,
		"phase":           env.phase,
		"experiment":      env.experiment,
	}).Info("[routing] decision")

	return decision, nil
}

func (s *routingService) Override(decisionUuid string, path enum.RoutePath, operator string) error {
	switch path {
	case enum.PathImmediateEscalation, enum.PathAutoRespond, enum.PathAutoRefine,
		enum.PathGenerateDraft, enum.PathDeepResearch:
	default:
		return fmt.Errorf("unknown route path '%s'", path)
	}

	overrideUuid := uuid.NewString()
	err := dao.Tx(func(tx *sqlx.Tx) error {
		_, err := s.decisionDb.Override(decisionUuid, overrideUuid, path, tx)
		return err
	})
	if err != nil {
		return err
	}

	global.Log.Warnf("[routing] operator %s overrode decision %s to %s (audit record %s)",
		operator, decisionUuid, path, overrideUuid)
	return nil
}

func (s *routingService) LatestDecision(conversationID uint) (*db.RoutingDecision, error) {
	return s.decisionDb.LatestForConversation(conversationID)
}

func (s *routingService) OverrideStats(since int64) ([]dto.RoutingPathStats, error) {
	counts, err := s.decisionDb.OverrideStats(since)
	if err != nil {
		return nil, err
	}

	stats := make([]dto.RoutingPathStats, 0, len(counts))
	for path, c := range counts {
		stats = append(stats, dto.RoutingPathStats{
			Path:       string(path),
			Total:      c[0],
			Overridden: c[1],
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Path < stats[j].Path })
	return stats, nil
}
