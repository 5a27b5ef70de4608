package client

import (
	"go.uber.org/zap"
	"net/http"
	"time"
)

// transportLogger implements the estransport.Logger interface on top of zap.
type transportLogger struct {
	logger *zap.Logger
}

func (l *transportLogger) LogRoundTrip(req *http.Request, rsp *http.Response, err error, start time.Time, dur time.Duration) error {

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Duration("duration", dur),
	}

	if rsp != nil {
		fields = append(fields, zap.Int("status", rsp.StatusCode))
	}

	if err != nil {
		l.logger.Warn("Request failed", append(fields, zap.Error(err))...)
		return nil
	}

	l.logger.Debug("Request complete", fields...)
	return nil
}

func (l *transportLogger) RequestBodyEnabled() bool {
	return false
}

func (l *transportLogger) ResponseBodyEnabled() bool {
	return false
}
