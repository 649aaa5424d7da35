package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Format: "json", Out: &buf})

	logger := WithComponent("pipeline")
	logger.Info().Int("reels", 3).Msg("run complete")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "pipeline" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["message"] != "run complete" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestInitLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	Init(Options{Format: "json", Level: "warn", Out: &buf})
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	Init(Options{Format: "json", Level: "warn", Verbose: true, Out: &buf})
	log.Debug().Msg("shown")
	if buf.Len() == 0 {
		t.Error("verbose should enable debug output")
	}
}

func TestWriterForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if _, ok := writerFor(&buf, "auto").(*bytes.Buffer); !ok {
		t.Error("auto format should write raw json to non-terminals")
	}
	if _, ok := writerFor(&buf, "console").(zerolog.ConsoleWriter); !ok {
		t.Error("console format should use ConsoleWriter")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("bogus") != zerolog.InfoLevel {
		t.Error("unknown levels should fall back to info")
	}
	if parseLevel("ERROR") != zerolog.ErrorLevel {
		t.Error("level parsing should be case-insensitive")
	}
}
