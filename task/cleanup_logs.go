package task

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/utils"
)

// CleanUpLogs deletes rotated log files older than the retention window.
func (m *Manager) CleanUpLogs() error {
	retentionDays := global.Config.LogRetentionDays
	if retentionDays == 0 {
		global.Log.Info("log cleanup disabled (log_retention_days = 0)")
		return nil
	}

	// gin_log_path and run_log_path are assumed to share a directory.
	logDir := filepath.Dir(global.Config.RunLogPath)
	now := time.Now().In(global.Tz)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, global.Tz)
	cutoffDate := today.AddDate(0, 0, -int(retentionDays))

	deletedCount := 0
	var errors []string

	err := filepath.WalkDir(logDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// e.g. run.log.2026-08-30
		fileDate, ok := utils.ParseDateFromLogFileName(d.Name(), global.Tz)
		if !ok {
			return nil
		}

		if fileDate.Before(cutoffDate) {
			if err := os.Remove(path); err != nil {
				errMsg := fmt.Sprintf("deleting old log file %s failed: %v", path, err)
				global.Log.Error(errMsg)
				errors = append(errors, errMsg)
			} else {
				global.Log.Infof("deleted old log file: %s", path)
				deletedCount++
			}
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("walking log directory '%s' failed: %w", logDir, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("errors during log cleanup: %s", strings.Join(errors, "; "))
	}

	global.Log.Infof("log cleanup done, deleted %d files", deletedCount)
	return nil
}
