package task

import (
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/service"
)

// RetuneThresholds folds the trailing outcome window into the routing score
// bands and recomputes per-category phases. Runs nightly so a bad day of
// outcomes moves thresholds at most one step.
func (m *Manager) RetuneThresholds() error {
	learning := service.Service.UserServiceGroup.LearningService
	if learning == nil {
		global.Log.Warn("learning service not ready, skipping retune")
		return nil
	}

	if err := learning.Retune(); err != nil {
		return err
	}
	return learning.RefreshPhases()
}
