package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// SetupLogging configures the standard logrus logger. The "auto" format
// picks text on a terminal and JSON otherwise.
func SetupLogging(l Log) error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", l.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	log.SetFormatter(formatter(l.Format, term.IsTerminal(int(os.Stdout.Fd()))))
	return nil
}

func formatter(format string, tty bool) log.Formatter {
	switch format {
	case "json":
		return &log.JSONFormatter{}
	case "text":
		return &log.TextFormatter{FullTimestamp: true}
	}
	if tty {
		return &log.TextFormatter{FullTimestamp: true}
	}
	return &log.JSONFormatter{}
}
