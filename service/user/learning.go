package user

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/strataops/strata-triage/dao"
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/db"
	"github.com/strataops/strata-triage/model/dto"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/strataops/strata-triage/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// trailingWindow is how many recent validated auto-responded examples the
// retuner reads per category when judging whether a threshold is too strict
// or too loose.
const trailingWindow = 50

// minRetuneSample guards the retuner against deciding on a handful of
// outcomes after a quiet period.
const minRetuneSample = 20

type LearningService interface {
	// PhaseFor returns the operating phase of a category. Unknown
	// categories run in the manual phase.
	PhaseFor(category string) enum.Phase
	// ValidatedCount returns the validated-example count backing the phase.
	ValidatedCount(category string) int64
	// RefreshPhases recomputes phases from validated example counts.
	// Progression is monotonic; only DowngradePhase moves one back.
	RefreshPhases() error
	DowngradePhase(category string, phase enum.Phase, operator string) error

	// ThresholdsFor reads the score bands for one routing evaluation from
	// the current snapshot. Holdout tickets always get the config baseline.
	ThresholdsFor(category string, holdout bool) global.ThresholdSet
	// Retune adjusts per-category auto-respond thresholds from trailing
	// success rates and swaps in a fresh snapshot atomically.
	Retune() error

	// InExperiment buckets a ticket into the holdout that keeps receiving
	// baseline thresholds while retuning runs. Stable per ticket.
	InExperiment(conversationID uint) bool

	// RecordExample appends a training example for a handled ticket. The
	// handling path scopes threshold retuning; the ticket text feeds the
	// few-shot embedding sync.
	RecordExample(conversationID uint, category string, path enum.RoutePath, ticketText string, tx *sqlx.Tx) error
	// RecordOutcome applies the late outcome label once feedback arrives.
	RecordOutcome(conversationID uint, outcome enum.OutcomeLabel, tx *sqlx.Tx) error

	// Status reports the tracker state per known category.
	Status() ([]dto.LearningStatus, error)
}

type learningService struct {
	trainingDb *dao.TrainingDb

	mu     sync.RWMutex
	phases map[string]enum.Phase
	counts map[string]int64
}

func NewLearningService() *learningService {
	s := &learningService{
		trainingDb: &dao.TrainingDb{},
		phases:     make(map[string]enum.Phase),
		counts:     make(map[string]int64),
	}

	global.Thresholds.Store(&global.ThresholdSnapshot{
		Default:     baselineThresholds(),
		PerCategory: map[string]global.ThresholdSet{},
	})

	if err := s.RefreshPhases(); err != nil {
		global.Log.Warnf("[learning] initial phase load failed: %v", err)
	}
	return s
}

func baselineThresholds() global.ThresholdSet {
	cfg := global.Config.Triage
	return global.ThresholdSet{
		AutoRespondMin: cfg.AutoRespondMin,
		AutoRefineMin:  cfg.AutoRefineMin,
		DraftMin:       cfg.DraftMin,
	}
}

func (s *learningService) PhaseFor(category string) enum.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if phase, ok := s.phases[category]; ok {
		return phase
	}
	return enum.PhaseManual
}

func (s *learningService) ValidatedCount(category string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[category]
}

func phaseForCount(count int64) enum.Phase {
	cfg := global.Config.Triage
	switch {
	case count >= int64(cfg.AutonomousFloor):
		return enum.PhaseAutonomous
	case count >= int64(cfg.AssistedFloor):
		return enum.PhaseAssisted
	default:
		return enum.PhaseManual
	}
}

func rankPhase(p enum.Phase) int {
	switch p {
	case enum.PhaseAutonomous:
		return 2
	case enum.PhaseAssisted:
		return 1
	default:
		return 0
	}
}

func (s *learningService) RefreshPhases() error {
	counts, err := s.trainingDb.CountValidatedByCategory()
	if err != nil {
		return fmt.Errorf("load validated counts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for category, count := range counts {
		s.counts[category] = count
		next := phaseForCount(count)
		current, known := s.phases[category]
		// A dip in counts never demotes a category on its own.
		if !known || rankPhase(next) > rankPhase(current) {
			if known {
				global.Log.Infof("[learning] category '%s' progressed %s -> %s (%d validated examples)",
					category, current, next, count)
			}
			s.phases[category] = next
		}
	}
	return nil
}

func (s *learningService) DowngradePhase(category string, phase enum.Phase, operator string) error {
	switch phase {
	case enum.PhaseManual, enum.PhaseAssisted, enum.PhaseAutonomous:
	default:
		return fmt.Errorf("unknown phase '%s'", phase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.phases[category]
	if rankPhase(phase) > rankPhase(current) {
		return fmt.Errorf("category '%s' is in phase %s; phases only progress through validated examples", category, current)
	}
	s.phases[category] = phase
	global.Log.Warnf("[learning] operator %s downgraded category '%s' from %s to %s",
		operator, category, current, phase)
	return nil
}

func (s *learningService) ThresholdsFor(category string, holdout bool) global.ThresholdSet {
	if holdout {
		return baselineThresholds()
	}
	if snap := global.Thresholds.Load(); snap != nil {
		return snap.For(category)
	}
	return baselineThresholds()
}

func (s *learningService) Retune() error {
	cfg := global.Config.Triage

	counts, err := s.trainingDb.CountValidatedByCategory()
	if err != nil {
		return fmt.Errorf("load validated counts: %w", err)
	}

	current := global.Thresholds.Load()
	if current == nil {
		current = &global.ThresholdSnapshot{Default: baselineThresholds()}
	}

	next := &global.ThresholdSnapshot{
		Default:     current.Default,
		PerCategory: make(map[string]global.ThresholdSet, len(current.PerCategory)),
	}
	for category, set := range current.PerCategory {
		next.PerCategory[category] = set
	}

	changed := false
	for category := range counts {
		rate, n, err := s.trainingDb.TrailingAutoRespondRate(category, trailingWindow)
		if err != nil {
			return fmt.Errorf("trailing auto-respond rate for '%s': %w", category, err)
		}
		if n < minRetuneSample {
			continue
		}

		set := current.For(category)
		before := set.AutoRespondMin

		switch {
		case rate > cfg.RelaxAbove:
			set.AutoRespondMin -= cfg.RelaxStep
		case rate < cfg.TightenBelow:
			set.AutoRespondMin += cfg.TightenStep
		default:
			continue
		}

		set.AutoRespondMin = utils.Clamp(set.AutoRespondMin, cfg.ThresholdFloor, cfg.ThresholdCeiling)
		if set.AutoRespondMin == before {
			continue
		}
		set.RetunedAt = time.Now().Unix()
		next.PerCategory[category] = set
		changed = true

		global.Log.Infof("[learning] category '%s' auto-respond threshold %.2f -> %.2f (trailing success %.2f over %d)",
			category, before, set.AutoRespondMin, rate, n)
	}

	if !changed {
		return nil
	}

	// One pointer swap; routing never observes a half-written snapshot.
	global.Thresholds.Store(next)
	return nil
}

func (s *learningService) InExperiment(conversationID uint) bool {
	fraction := global.Config.Triage.ExperimentFraction
	if fraction <= 0 {
		return false
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%d", conversationID)
	return h.Sum32()%100 < uint32(fraction)
}

func (s *learningService) RecordExample(conversationID uint, category string, path enum.RoutePath, ticketText string, tx *sqlx.Tx) error {
	return s.trainingDb.Insert(&db.TrainingExample{
		Uuid:           uuid.NewString(),
		ConversationID: conversationID,
		Category:       category,
		Path:           path,
		TicketText:     ticketText,
		Outcome:        enum.OutcomeUnknown,
	}, tx)
}

func (s *learningService) RecordOutcome(conversationID uint, outcome enum.OutcomeLabel, tx *sqlx.Tx) error {
	_, err := s.trainingDb.UpdateOutcome(conversationID, outcome, tx)
	return err
}

func (s *learningService) Status() ([]dto.LearningStatus, error) {
	counts, err := s.trainingDb.CountValidatedByCategory()
	if err != nil {
		return nil, err
	}
	snap := global.Thresholds.Load()

	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]dto.LearningStatus, 0, len(s.phases))
	for category, phase := range s.phases {
		set := baselineThresholds()
		if snap != nil {
			set = snap.For(category)
		}
		statuses = append(statuses, dto.LearningStatus{
			Category:       category,
			ValidatedCount: int(counts[category]),
			Phase:          string(phase),
			AutoRespondMin: set.AutoRespondMin,
			AutoRefineMin:  set.AutoRefineMin,
			DraftMin:       set.DraftMin,
		})
	}
	return statuses, nil
}
