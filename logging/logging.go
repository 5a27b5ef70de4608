// Package logging builds the zap loggers used by the command line tools.
package logging

import (
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/docker"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"slices"
	"strings"
)

const (
	LEVEL_DEBUG    string = "DEBUG"
	LEVEL_INFO     string = "INFO"
	LEVEL_WARNING  string = "WARNING"
	LEVEL_ERROR    string = "ERROR"
	LEVEL_CRITICAL string = "CRITICAL"
)

const (
	FORMAT_DEFAULT string = "default"
	FORMAT_ECS     string = "ecs"
)

// DOCKER_STDOUT is the stdout of PID 1, which is what `docker logs` reads.
const DOCKER_STDOUT string = "/proc/1/fd/1"

// Levels are the valid log level names, from most to least verbose.
var Levels = []string{LEVEL_DEBUG, LEVEL_INFO, LEVEL_WARNING, LEVEL_ERROR, LEVEL_CRITICAL}

// Formats are the valid log format names.
var Formats = []string{FORMAT_DEFAULT, FORMAT_ECS}

// type Config defines how log messages are formatted and where they are written.
type Config struct {
	// Level is one of Levels.
	Level string
	// File is an optional path that log messages are appended to.
	File string
	// Format is one of Formats.
	Format string
	// Blacklist are the names of loggers whose messages are dropped.
	Blacklist []string
}

// Validate ensures c has a known level and format.
func (c Config) Validate() error {

	_, err := ParseLevel(c.Level)

	if err != nil {
		return err
	}

	if !slices.Contains(Formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("%w: invalid logformat %q (must be one of %s)", fieldusage.ErrConfiguration, c.Format, strings.Join(Formats, ", "))
	}

	return nil
}

// ParseLevel maps a level name to a zapcore.Level. CRITICAL is mapped to zapcore.DPanicLevel which
// does not panic in production loggers.
func ParseLevel(name string) (zapcore.Level, error) {

	switch strings.ToUpper(name) {
	case LEVEL_DEBUG:
		return zapcore.DebugLevel, nil
	case LEVEL_INFO:
		return zapcore.InfoLevel, nil
	case LEVEL_WARNING:
		return zapcore.WarnLevel, nil
	case LEVEL_ERROR:
		return zapcore.ErrorLevel, nil
	case LEVEL_CRITICAL:
		return zapcore.DPanicLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: invalid loglevel %q (must be one of %s)", fieldusage.ErrConfiguration, name, strings.Join(Levels, ", "))
	}
}

// New returns a new *zap.Logger for cfg. Messages are written to cfg.File if set, otherwise to
// the container's stdout when running in Docker, otherwise to os.Stdout.
func New(cfg Config) (*zap.Logger, error) {

	ws, err := destination(cfg)

	if err != nil {
		return nil, err
	}

	return NewWithWriter(cfg, ws)
}

// NewWithWriter returns a new *zap.Logger for cfg that writes to ws.
func NewWithWriter(cfg Config, ws zapcore.WriteSyncer) (*zap.Logger, error) {

	err := cfg.Validate()

	if err != nil {
		return nil, err
	}

	level, _ := ParseLevel(cfg.Level)
	debug := level == zapcore.DebugLevel

	var core zapcore.Core

	switch strings.ToLower(cfg.Format) {
	case FORMAT_ECS:
		core = ecszap.NewCore(ecszap.NewDefaultEncoderConfig(), ws, level)
	default:
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig(debug)), ws, level)
	}

	if len(cfg.Blacklist) > 0 {
		core = &blacklistCore{Core: core, names: cfg.Blacklist}
	}

	opts := []zap.Option{
		zap.ErrorOutput(ws),
	}

	if debug {
		opts = append(opts, zap.AddCaller())
	}

	return zap.New(core, opts...), nil
}

func consoleEncoderConfig(debug bool) zapcore.EncoderConfig {

	enc_cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "message",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      encodeLevel,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}

	if debug {
		enc_cfg.NameKey = "logger"
		enc_cfg.CallerKey = "caller"
	}

	return enc_cfg
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {

	switch l {
	case zapcore.WarnLevel:
		enc.AppendString(LEVEL_WARNING)
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		enc.AppendString(LEVEL_CRITICAL)
	default:
		enc.AppendString(l.CapitalString())
	}
}

func destination(cfg Config) (zapcore.WriteSyncer, error) {

	if cfg.File != "" {

		fh, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)

		if err != nil {
			return nil, fmt.Errorf("%w: unable to open logfile %s: %w", fieldusage.ErrConfiguration, cfg.File, err)
		}

		return zapcore.AddSync(fh), nil
	}

	if docker.IsDocker() {

		fh, err := os.OpenFile(DOCKER_STDOUT, os.O_APPEND|os.O_WRONLY, 0)

		if err == nil {
			return zapcore.AddSync(fh), nil
		}
	}

	return zapcore.Lock(os.Stdout), nil
}
