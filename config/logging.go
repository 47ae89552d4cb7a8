package config

import (
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging builds the process logger. A configured file is rotated by
// lumberjack, otherwise output goes to stdout.
func SetupLogging(conf Config) *log.Logger {
	lg := log.New()

	var out io.Writer = os.Stdout
	if conf.Logging.File != "" {
		out = &lumberjack.Logger{
			Filename:   conf.Logging.File,
			MaxSize:    conf.Logging.MaxSize, // megabytes
			MaxBackups: 2,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	lg.SetOutput(out)

	level, err := log.ParseLevel(conf.Logging.Level)
	if err != nil {
		level = log.InfoLevel
		lg.WithField("level", conf.Logging.Level).Warn("unknown logging level, using info")
	}
	lg.SetLevel(level)
	lg.SetFormatter(&log.TextFormatter{
		PadLevelText:    true,
		DisableColors:   conf.Logging.File != "",
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
	})
	return lg
}
