package main

import (
	"fmt"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/initialize"
	"github.com/strataops/strata-triage/service"
	"github.com/strataops/strata-triage/task"
)

func main() {
	startTime := time.Now()
	initSvc := initialize.New()

	if err := initSvc.InitTz(); err != nil {
		panic(fmt.Sprintf("initializing timezone failed: %v", err))
	}

	if err := initSvc.InitLog(); err != nil {
		panic(fmt.Sprintf("initializing log failed: %v", err))
	}

	defer func() {
		if p := recover(); p != nil {
			global.Log.Errorln(p)
		}
	}()

	if err := initSvc.Run(); err != nil {
		global.Log.Fatalf("core client initialization failed, aborting: %v", err)
	}
	defer initSvc.Close()

	initSvc.InitLogger()

	taskManager := task.NewManager(global.EmbeddingService)

	if initialize.Act != "" {
		dispatchAction(initialize.Act, taskManager)
		return
	}

	initialize.Start(initSvc, taskManager, startTime)
}

// dispatchAction runs one maintenance job and exits instead of serving.
func dispatchAction(action string, taskManager *task.Manager) {
	global.Log.Infof("running one-shot action: %s", action)
	var err error
	switch action {
	case "retune":
		service.Setup()
		err = taskManager.RetuneThresholds()
	case "archive":
		err = taskManager.ArchiveConversations()
	case "sync":
		err = taskManager.SyncCorpusEmbeddings()
	case "clear":
		err = taskManager.CleanUpLogs()
	default:
		global.Log.Errorf("unknown action: %s", action)
		return
	}
	if err != nil {
		global.Log.Errorf("action '%s' failed: %v", action, err)
		return
	}
	global.Log.Infof("action '%s' done", action)
}
