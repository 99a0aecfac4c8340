package logger

import (
	"fmt"
	"io"
	"log"
)

type Logger struct {
	level   Level
	loggers map[Level]*log.Logger
}

func (l *Logger) output(level Level, s string) {
	if lg, ok := l.loggers[level]; ok && level <= l.level {
		_ = lg.Output(3, s)
	}
}

func (l *Logger) Trace(v ...any) { l.output(LevelTrace, fmt.Sprintln(v...)) }
func (l *Logger) Debug(v ...any) { l.output(LevelDebug, fmt.Sprintln(v...)) }
func (l *Logger) Info(v ...any)  { l.output(LevelInfo, fmt.Sprintln(v...)) }
func (l *Logger) Warn(v ...any)  { l.output(LevelWarn, fmt.Sprintln(v...)) }
func (l *Logger) Error(v ...any) { l.output(LevelError, fmt.Sprintln(v...)) }

func (l *Logger) Tracef(format string, v ...any) { l.output(LevelTrace, fmt.Sprintf(format, v...)) }
func (l *Logger) Debugf(format string, v ...any) { l.output(LevelDebug, fmt.Sprintf(format, v...)) }
func (l *Logger) Infof(format string, v ...any)  { l.output(LevelInfo, fmt.Sprintf(format, v...)) }
func (l *Logger) Warnf(format string, v ...any)  { l.output(LevelWarn, fmt.Sprintf(format, v...)) }
func (l *Logger) Errorf(format string, v ...any) { l.output(LevelError, fmt.Sprintf(format, v...)) }

func (l *Logger) Level() Level {
	return l.level
}

// NewLogger writes every enabled level to out, prefixed with the padded level name.
func NewLogger(level Level, out io.Writer) *Logger {
	flag := log.LstdFlags | log.Lshortfile
	loggers := make(map[Level]*log.Logger)
	for lv := LevelFatal; lv <= LevelTrace; lv++ {
		loggers[lv] = log.New(out, fmt.Sprintf("%-5s:", lv), flag)
	}
	return &Logger{
		level:   level,
		loggers: loggers,
	}
}

// Discard returns a Logger with every level switched off.
func Discard() *Logger {
	return NewLogger(LevelOff, io.Discard)
}
