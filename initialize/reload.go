package initialize

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/model/config"
	"github.com/strataops/strata-triage/service"
	"golang.org/x/sync/errgroup"
)

// HandleConfigChange diffs the old and new config and reloads only the
// clients whose settings moved. Database, listen address and log paths
// cannot be reloaded in place; those changes get a restart warning.
func (i *Initializer) HandleConfigChange(oldConfig, newConfig *config.Config) {
	i.reloadLock.Lock()
	defer i.reloadLock.Unlock()

	var restartNeeded []string

	if !reflect.DeepEqual(oldConfig.Database, newConfig.Database) {
		restartNeeded = append(restartNeeded, "database")
	}
	if oldConfig.GinAddr != newConfig.GinAddr {
		restartNeeded = append(restartNeeded, "gin_addr")
	}
	if oldConfig.GinLogPath != newConfig.GinLogPath || oldConfig.RunLogPath != newConfig.RunLogPath {
		restartNeeded = append(restartNeeded, "log_path")
	}

	eg, _ := errgroup.WithContext(context.Background())

	if oldConfig.Tz != newConfig.Tz {
		eg.Go(func() error {
			if err := i.InitTz(); err != nil {
				global.Log.Errorf("reloading timezone failed: %v", err)
				return err
			}
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.Redis, newConfig.Redis) {
		eg.Go(func() error {
			if err := i.redisClose(); err != nil {
				global.Log.Warnf("closing old redis client failed: %v", err)
			}
			if err := i.initRedis(); err != nil {
				global.Log.Errorf("reloading redis client failed: %v", err)
				return err
			}
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.Chatwoot, newConfig.Chatwoot) {
		eg.Go(func() error {
			if err := i.initChatwoot(); err != nil {
				global.Log.Errorf("reloading ticketing platform client failed: %v", err)
				return err
			}
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.Llm, newConfig.Llm) {
		eg.Go(func() error {
			if err := i.initLlm(); err != nil {
				global.Log.Errorf("reloading llm clients failed: %v", err)
				return err
			}
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.LlmEmbedding, newConfig.LlmEmbedding) {
		eg.Go(func() error {
			if err := i.initLlmEmbedding(); err != nil {
				global.Log.Errorf("reloading embedding client failed: %v", err)
				return err
			}
			// New model or dimension means every stored vector is stale.
			i.taskManager.DebounceCorpusSync(30 * time.Second)
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.VectorDb, newConfig.VectorDb) {
		eg.Go(func() error {
			if err := i.vectorDbClose(); err != nil {
				global.Log.Warnf("closing old vector store client failed: %v", err)
			}
			if err := i.initVectorDb(); err != nil {
				global.Log.Errorf("reloading vector store client failed: %v", err)
				return err
			}
			i.taskManager.DebounceCorpusSync(30 * time.Second)
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.Triage, newConfig.Triage) {
		eg.Go(func() error {
			// The services capture tuning at construction time; rebuild the
			// graph so new bands, deltas and keyword lists take effect.
			service.Setup()
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.McpServers, newConfig.McpServers) {
		eg.Go(func() error {
			if global.McpService == nil {
				if err := i.initMcp(); err != nil {
					global.Log.Errorf("initializing mcp clients during reload failed: %v", err)
					return err
				}
				return nil
			}

			oldMap := oldConfig.McpServers
			newMap := newConfig.McpServers

			for name, oldCfg := range oldMap {
				if newCfg, ok := newMap[name]; !ok {
					global.McpService.RemoveClient(name)
				} else if !reflect.DeepEqual(oldCfg, newCfg) {
					global.McpService.AddOrUpdateClient(name, newCfg)
				}
			}

			for name, newCfg := range newMap {
				if _, ok := oldMap[name]; !ok {
					global.McpService.AddOrUpdateClient(name, newCfg)
				}
			}
			return nil
		})
	}

	if !reflect.DeepEqual(oldConfig.Oss, newConfig.Oss) {
		eg.Go(func() error {
			if err := i.ossClose(); err != nil {
				global.Log.Warnf("closing old oss client failed: %v", err)
			}
			if err := i.initOss(); err != nil {
				global.Log.Errorf("reloading oss client failed: %v", err)
				return err
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		global.Log.Errorf("error during concurrent config reload: %v", err)
	}

	if len(restartNeeded) > 0 {
		global.Log.Warnf("config changes requiring a restart to take effect: [%s]", strings.Join(restartNeeded, ", "))
	}

	global.Log.Info("config change handled")
}
