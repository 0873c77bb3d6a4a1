package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/config"
	"jobmate/vacancy-service/internal/logger"
)

func TestNew_Level(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		log := logger.NewWithWriter(config.LogConfig{Level: in}, &bytes.Buffer{})
		if got := log.GetLevel(); got != want {
			t.Errorf("level %q -> %s, want %s", in, got, want)
		}
	}
}

func TestComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Component(logger.NewWithWriter(config.LogConfig{Level: "info"}, &buf), "store")
	log.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "store" {
		t.Errorf("component = %v, want store", entry["component"])
	}
	if entry["service"] != "vacancy-service" {
		t.Errorf("service = %v, want vacancy-service", entry["service"])
	}
}

func TestQueryTracer(t *testing.T) {
	info := logger.NewWithWriter(config.LogConfig{Level: "info"}, &bytes.Buffer{})
	if logger.QueryTracer(info) != nil {
		t.Error("QueryTracer at info level should be nil")
	}

	debug := logger.NewWithWriter(config.LogConfig{Level: "debug"}, &bytes.Buffer{})
	tr := logger.QueryTracer(debug)
	if tr == nil {
		t.Fatal("QueryTracer at debug level should not be nil")
	}
	if tr.LogLevel != tracelog.LogLevelDebug {
		t.Errorf("LogLevel = %v, want debug", tr.LogLevel)
	}
}
