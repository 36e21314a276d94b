package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{}, err error)
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type zeroLogger struct {
	zl zerolog.Logger
}

// New returns a JSON logger writing to stdout, tagged with the service name and hostname.
func New(service, level string) Logger {
	return NewWithWriter(os.Stdout, service, level)
}

func NewWithWriter(w io.Writer, service, level string) Logger {
	hostname, _ := os.Hostname()

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zl := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Logger()

	return &zeroLogger{zl: zl}
}

// NewNop discards everything.
func NewNop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

func (l *zeroLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(l.zl.Info(), action, message, requestID, details, nil)
}

func (l *zeroLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(l.zl.Debug(), action, message, requestID, details, nil)
}

func (l *zeroLogger) Warn(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(l.zl.Warn(), action, message, requestID, details, err)
}

func (l *zeroLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(l.zl.Error(), action, message, requestID, details, err)
}

func (l *zeroLogger) log(event *zerolog.Event, action, message, requestID string, details map[string]interface{}, err error) {
	if event == nil {
		return
	}
	event = event.Str("action", action)
	if requestID != "" {
		event = event.Str("request_id", requestID)
	}
	if len(details) > 0 {
		event = event.Fields(map[string]interface{}{"details": details})
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(message)
}
