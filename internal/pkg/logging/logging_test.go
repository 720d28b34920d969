package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hewliyang/waze-traffic-api/internal/pkg/logging"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn should be logged: %q", out)
	}
}

func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "quiet", "json")
	logger.Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logging.New(&buf, "debug", "json").Debug("plan", "route", "tuas")
	if !strings.Contains(buf.String(), `"route":"tuas"`) {
		t.Errorf("expected json attrs, got %q", buf.String())
	}
}
