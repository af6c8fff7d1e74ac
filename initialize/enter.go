package initialize

import (
	"context"
	"io"
	"sync"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/task"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// Initializer owns the lifecycle of every external client and the cron
// scheduler. Created by New, driven by main.
type Initializer struct {
	cron           *cron.Cron
	logFileClosers []io.Closer
	reloadLock     sync.Mutex
	taskManager    *task.Manager
}

// Run starts the core clients concurrently. The database, Redis and the
// ticketing platform are hard requirements; the AI-side clients only warn on
// failure so the service can come up degraded and escalate every ticket
// until they recover.
func (i *Initializer) Run() error {
	eg, _ := errgroup.WithContext(context.Background())

	eg.Go(i.dbStart)
	eg.Go(i.initRedis)
	eg.Go(i.initChatwoot)

	eg.Go(func() error {
		_ = i.initLlm()
		return nil
	})
	eg.Go(func() error {
		_ = i.initLlmEmbedding()
		return nil
	})
	eg.Go(func() error {
		_ = i.initVectorDb()
		return nil
	})
	eg.Go(func() error {
		_ = i.initMcp()
		return nil
	})
	eg.Go(func() error {
		_ = i.initOss()
		return nil
	})

	return eg.Wait()
}

// Close releases every resource Run opened, in reverse dependency order.
func (i *Initializer) Close() {
	i.timerStop()

	if err := i.dbClose(); err != nil {
		global.Log.Warnf("closing database failed: %v", err)
	}
	if err := i.redisClose(); err != nil {
		global.Log.Warnf("closing redis client failed: %v", err)
	}
	if err := i.vectorDbClose(); err != nil {
		global.Log.Warnf("closing vector store client failed: %v", err)
	}
	if err := i.mcpClose(); err != nil {
		global.Log.Warnf("closing mcp clients failed: %v", err)
	}
	if err := i.ossClose(); err != nil {
		global.Log.Warnf("closing oss client failed: %v", err)
	}

	for _, closer := range i.logFileClosers {
		_ = closer.Close()
	}
}

// StartSystem brings up the scheduler and runs the startup data passes.
func (i *Initializer) StartSystem(taskManager *task.Manager) {
	i.taskManager = taskManager
	if err := i.timerStart(taskManager); err != nil {
		panic(err)
	}
	i.loadData(taskManager)
}
