package logging

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWriter_DoesNotPanic(t *testing.T) {
	InitWriter(io.Discard, false, false)
	log := L()
	log.Info().Msg("test json info")

	InitWriter(io.Discard, true, false)
	L().Debug().Msg("test json debug")

	InitWriter(io.Discard, false, true)
	L().Info().Msg("test human info")

	InitWriter(os.Stderr, false, false)
}

func TestInitWriter_JSONAndHuman(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, false, false)
	L().Info().Str("k", "v").Msg("json line")
	L().Debug().Msg("hidden")
	if !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("expected JSON field, got %s", buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug event logged at info level: %s", buf.String())
	}
	if IsPrettyMode() {
		t.Error("IsPrettyMode true for JSON output")
	}

	buf.Reset()
	InitWriter(&buf, true, true)
	L().Debug().Msg("console line")
	if !strings.Contains(buf.String(), "console line") {
		t.Errorf("expected console output, got %s", buf.String())
	}
	if !IsPrettyMode() {
		t.Error("IsPrettyMode false for human output")
	}

	InitWriter(os.Stderr, false, false)
}

func TestWithPhase(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	log := WithPhase("test_phase")
	log.Info().Msg("test message")

	if !bytes.Contains(buf.Bytes(), []byte(`"phase":"test_phase"`)) {
		t.Errorf("expected phase field in output, got: %s", buf.String())
	}

	InitWriter(os.Stderr, false, false)
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	customLogger := zerolog.New(&buf).With().Str("custom", "field").Logger()
	SetLogger(customLogger)

	L().Info().Msg("test")

	if !bytes.Contains(buf.Bytes(), []byte(`"custom":"field"`)) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}

	InitWriter(os.Stderr, false, false)
}
