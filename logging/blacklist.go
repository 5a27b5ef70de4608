package logging

import (
	"go.uber.org/zap/zapcore"
	"strings"
)

// blacklistCore drops entries written by blacklisted loggers (or their children).
type blacklistCore struct {
	zapcore.Core
	names []string
}

func (c *blacklistCore) With(fields []zapcore.Field) zapcore.Core {
	return &blacklistCore{
		Core:  c.Core.With(fields),
		names: c.names,
	}
}

func (c *blacklistCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {

	if c.blacklisted(ent.LoggerName) {
		return ce
	}

	return c.Core.Check(ent, ce)
}

func (c *blacklistCore) blacklisted(name string) bool {

	if name == "" {
		return false
	}

	for _, b := range c.names {

		if name == b || strings.HasPrefix(name, b+".") {
			return true
		}
	}

	return false
}
