package host

import (
	"strings"
	"testing"
	"time"
)

func TestLogfFormatsTimestampedLine(t *testing.T) {
	var sb strings.Builder
	l := NewLogger(&sb)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Logf("daemon %d evoked", 3)

	got := sb.String()
	if !strings.Contains(got, "2026-01-02 03:04:05") {
		t.Errorf("missing formatted timestamp in %q", got)
	}
	if !strings.Contains(got, "daemon 3 evoked") {
		t.Errorf("missing formatted message in %q", got)
	}
}

func TestLogfOnNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Logf("should not panic")
}
