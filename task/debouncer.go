package task

import (
	"sync"
	"time"

	"github.com/strataops/strata-triage/global"
)

var (
	corpusSyncTimer *time.Timer
	corpusSyncMutex sync.Mutex
)

// DebounceCorpusSync schedules a corpus re-embedding after the delay,
// resetting the timer on every call. Config reloads that touch the embedding
// model or vector store fire this instead of syncing inline.
func (m *Manager) DebounceCorpusSync(delay time.Duration) {
	corpusSyncMutex.Lock()
	defer corpusSyncMutex.Unlock()

	if corpusSyncTimer != nil {
		corpusSyncTimer.Stop()
	}

	corpusSyncTimer = time.AfterFunc(delay, func() {
		global.Log.Info("running debounced corpus sync...")
		if err := m.SyncCorpusEmbeddings(); err != nil {
			global.Log.Errorf("debounced corpus sync failed: %v", err)
		}
	})
	global.Log.Infof("corpus sync scheduled in %v", delay)
}
