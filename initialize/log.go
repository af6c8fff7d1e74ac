package initialize

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/utils"
	"github.com/sirupsen/logrus"
)

// setupLogFile opens a daily-rotated log file, e.g. run.log -> run.log.2026-08-30.
func (i *Initializer) setupLogFile(logPath string) (*os.File, error) {
	dateSuffix := time.Now().In(global.Tz).Format("2006-01-02")
	dailyLogPath := fmt.Sprintf("%s.%s", logPath, dateSuffix)

	if err := utils.CreateFile(dailyLogPath); err != nil {
		return nil, fmt.Errorf("creating log file '%s' failed: %w", dailyLogPath, err)
	}

	file, err := os.OpenFile(dailyLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file '%s' failed: %w", dailyLogPath, err)
	}

	i.logFileClosers = append(i.logFileClosers, file)
	return file, nil
}

// tzJSONFormatter renders logrus timestamps in the configured timezone.
type tzJSONFormatter struct {
	logrus.JSONFormatter
}

func (f *tzJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.In(global.Tz)
	return f.JSONFormatter.Format(entry)
}

// InitLog sets up the structured run log.
func (i *Initializer) InitLog() error {
	runfile, err := i.setupLogFile(global.Config.RunLogPath)
	if err != nil {
		return fmt.Errorf("initializing run log failed: %w", err)
	}

	global.Log = logrus.New()
	global.Log.SetFormatter(&tzJSONFormatter{
		JSONFormatter: logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
				logrus.FieldKeyTime:  "time",
			},
		},
	})
	if global.Config.Debug {
		global.Log.SetLevel(logrus.DebugLevel)
	} else {
		global.Log.SetLevel(logrus.InfoLevel)
	}

	global.Log.SetOutput(io.MultiWriter(os.Stdout, runfile))
	return nil
}

func (i *Initializer) InitTz() error {
	location, err := time.LoadLocation(global.Config.Tz)
	if err != nil {
		return fmt.Errorf("loading timezone '%s' failed: %w", global.Config.Tz, err)
	}
	global.Tz = location
	return nil
}
