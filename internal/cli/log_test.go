package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestCLILogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("rendering", "format", "svg")
	if !strings.Contains(buf.String(), "format=svg") {
		t.Errorf("debug output missing fields: %q", buf.String())
	}
}

func TestLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("ready")

	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("log line should start with a HH:MM:SS.ms timestamp: %q", buf.String())
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Loaded 3 tag(s)")

	if !regexp.MustCompile(`Loaded 3 tag\(s\) \(\d+m?s\)`).MatchString(buf.String()) {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestLoadTagsLogsSource(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.configPath = env.writeConfig(t, "")

	tags, err := c.loadTags(context.Background(), dataFlags{}, []string{"001", "002"})
	if err != nil {
		t.Fatalf("loadTags() error: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("loaded %d tags, want 2", len(tags))
	}
	if !strings.Contains(buf.String(), "Loaded 2 tag(s) from dir:"+env.dataDir) {
		t.Errorf("log output = %q", buf.String())
	}
}
