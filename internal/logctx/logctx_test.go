package logctx

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eunmann/inv-rollup/pkg/logging"
)

func TestFromContext_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	logger := FromContext(nil)

	var buf bytes.Buffer
	testLogger := logger.Output(&buf)
	testLogger.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("expected logger to produce output")
	}
}

func TestFromContext_FallsBackToProcessLogger(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(zerolog.New(&buf).With().Str("proc", "yes").Logger())
	defer logging.InitWriter(os.Stderr, false, false)

	logger := FromContext(context.Background())
	logger.Info().Msg("test")

	if !strings.Contains(buf.String(), `"proc":"yes"`) {
		t.Errorf("expected process logger output, got: %s", buf.String())
	}
}

func TestWithLogger_AndFromContext(t *testing.T) {
	var buf bytes.Buffer
	customLogger := zerolog.New(&buf).With().Str("custom", "field").Logger()

	ctx := WithLogger(context.Background(), customLogger)
	logger := FromContext(ctx)
	logger.Info().Msg("test")

	if !strings.Contains(buf.String(), `"custom":"field"`) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}
}

func TestWithLogger_NilContext(t *testing.T) {
	var buf bytes.Buffer

	//nolint:staticcheck // nil context is handled explicitly
	ctx := WithLogger(nil, zerolog.New(&buf))
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}

	logger := FromContext(ctx)
	logger.Info().Msg("test")
	if buf.Len() == 0 {
		t.Error("expected logger to produce output")
	}
}

func TestWithStr(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	ctx = WithStr(ctx, "phase", "ingest")
	logger := FromContext(ctx)
	logger.Info().Msg("test")

	if !strings.Contains(buf.String(), `"phase":"ingest"`) {
		t.Errorf("expected phase field in output, got: %s", buf.String())
	}
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	ctx = WithRun(ctx, "abc-123", "SRV1")
	logger := FromContext(ctx)
	logger.Info().Msg("test")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"abc-123"`) || !strings.Contains(out, `"label":"SRV1"`) {
		t.Errorf("expected run fields in output, got: %s", out)
	}
}
