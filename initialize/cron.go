package initialize

import (
	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/task"
	"github.com/robfig/cron/v3"
)

func (i *Initializer) timerStart(taskManager *task.Manager) error {
	i.cron = cron.New([]cron.Option{
		cron.WithLocation(global.Tz),
	}...)

	// Hourly: embed changed corpus entries, prune retired vectors.
	if err := i.startCronJob(taskManager.SyncCorpusEmbeddings, "0 * * * *"); err != nil {
		return err
	}
	// Nightly: fold the day's outcomes into thresholds and phases.
	if err := i.startCronJob(taskManager.RetuneThresholds, "30 2 * * *"); err != nil {
		return err
	}
	// Nightly: ship terminal conversations to cold storage.
	if err := i.startCronJob(taskManager.ArchiveConversations, "0 2 * * *"); err != nil {
		return err
	}
	if err := i.startCronJob(taskManager.ProbeMcpServers, "0 4 * * *"); err != nil {
		return err
	}
	if err := i.startCronJob(taskManager.CleanUpLogs, "0 3 * * *"); err != nil {
		return err
	}

	i.cron.Start()
	global.Log.Infoln("scheduler started")
	return nil
}

func (i *Initializer) timerStop() {
	if i.cron == nil {
		global.Log.Warnln("scheduler was never started")
		return
	}
	i.cron.Stop()
	global.Log.Infoln("scheduler stopped")
}

func (i *Initializer) startCronJob(task func() error, schedule string) error {
	_, err := i.cron.AddFunc(schedule, func() {
		if err := task(); err != nil {
			global.Log.Errorf("scheduled job failed: %v", err)
		}
	})
	return err
}
