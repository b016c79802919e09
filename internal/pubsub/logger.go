package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/vendora/vendora/internal/logger"
)

// LoggerAdapter routes watermill's internal logs through the application logger
type LoggerAdapter struct {
	log    *logger.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter wraps the application logger for watermill
func NewLoggerAdapter(log *logger.Logger) watermill.LoggerAdapter {
	return &LoggerAdapter{log: log}
}

func (a *LoggerAdapter) args(fields watermill.LogFields) []interface{} {
	merged := a.fields.Add(fields)
	args := make([]interface{}, 0, len(merged)*2)
	for k, v := range merged {
		args = append(args, k, v)
	}
	return args
}

func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Errorw(msg, append(a.args(fields), "error", err)...)
}

func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Infow(msg, a.args(fields)...)
}

func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, a.args(fields)...)
}

func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, a.args(fields)...)
}

func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{log: a.log, fields: a.fields.Add(fields)}
}
