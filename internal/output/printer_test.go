package output

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stepline/internal/build"
)

func TestPrinter_StepHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.StepHeader(2, 4, "style check")

	assert.Contains(t, buf.String(), "[2/4]")
	assert.Contains(t, buf.String(), "style check")
}

func TestPrinter_StepOutcome(t *testing.T) {
	tests := []struct {
		name   string
		status build.Status
		want   string
	}{
		{"passed", build.StatusPassed, "tests"},
		{"failed", build.StatusFailed, "exit 2"},
		{"skipped", build.StatusSkipped, "skipped"},
		{"timed out", build.StatusTimedOut, "timed out"},
		{"canceled", build.StatusCanceled, "canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			p := NewPrinterWithWriter(buf)

			p.StepOutcome("tests", tt.status, 2, time.Second)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrinter_Summary(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	started := time.Now().Add(-time.Minute)
	b := &build.Build{
		ID:         "build-1",
		Status:     build.StatusFailed,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Steps: []build.StepResult{
			{Label: "tests", Status: build.StatusPassed, Duration: 30 * time.Second},
			{Label: "style check", Status: build.StatusFailed, ExitCode: 1},
		},
	}
	p.Summary(b)

	out := buf.String()
	assert.Contains(t, out, "Build failed")
	assert.Contains(t, out, "build-1")
	assert.Contains(t, out, "tests")
	assert.Contains(t, out, "style check")
}

func TestWriter_TruncatesLongLines(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	p.SetMaxLineLength(10)

	_, err := io.WriteString(p.Writer(), "0123456789abcdef\nshort\n")
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "0123456789 [line truncated]\n")
	assert.NotContains(t, out, "abcdef")
	assert.Contains(t, out, "short\n")
}

func TestWriter_TruncatesAcrossChunkedWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	p.SetMaxLineLength(8)

	// Step output arrives in arbitrary chunks; the cap applies per line,
	// not per write.
	w := p.Writer()
	for _, chunk := range []string{"01234", "567", "89ab", "\ntail\n"} {
		_, err := io.WriteString(w, chunk)
		assert.NoError(t, err)
	}

	out := buf.String()
	assert.Contains(t, out, "01234567 [line truncated]\n")
	assert.NotContains(t, out, "89ab")
	assert.Contains(t, out, "tail\n")
}

func TestWriter_NoLimitPassesThrough(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	long := strings.Repeat("x", 5000)
	_, err := io.WriteString(p.Writer(), long+"\n")
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), long)
}

func TestPrinter_Barrier(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Barrier(false)
	assert.Contains(t, buf.String(), "wait")

	buf.Reset()
	p.Barrier(true)
	assert.Contains(t, buf.String(), "continuing despite failures")
}
