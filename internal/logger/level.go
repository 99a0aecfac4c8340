package logger

import (
	"github.com/pkg/errors"
	"strings"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=Level -linecomment

// Level orders verbosity; a Logger writes every level up to and including its own.
type Level int

const (
	LevelOff   Level = iota // OFF
	LevelFatal              // FATAL
	LevelError              // ERROR
	LevelWarn               // WARN
	LevelInfo               // INFO
	LevelDebug              // DEBUG
	LevelTrace              // TRACE
)

var levelNames = map[string]Level{
	"OFF":     LevelOff,
	"FATAL":   LevelFatal,
	"ERROR":   LevelError,
	"WARN":    LevelWarn,
	"WARNING": LevelWarn,
	"INFO":    LevelInfo,
	"DEBUG":   LevelDebug,
	"TRACE":   LevelTrace,
}

func ParseLevel(s string) (Level, error) {
	level, ok := levelNames[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return -1, errors.Errorf("invalid log level: %q", s)
	}
	return level, nil
}
