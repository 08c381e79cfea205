package output

import (
	"bytes"
	"io"
)

// truncMarker is appended where a line was cut.
const truncMarker = " [line truncated]"

// truncatingWriter caps the length of each line written through it.
// Bytes beyond the cap are dropped until the next newline. Write always
// reports the full input as consumed, so an io.MultiWriter feeding both
// a log file and the console keeps the full line in the log.
type truncatingWriter struct {
	w    io.Writer
	max  int
	line int  // bytes emitted on the current line
	cut  bool // current line already hit the cap
}

func newTruncatingWriter(w io.Writer, max int) *truncatingWriter {
	return &truncatingWriter{w: w, max: max}
}

func (t *truncatingWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		rest := p[written:]
		chunk := rest
		nl := bytes.IndexByte(rest, '\n')
		if nl >= 0 {
			chunk = rest[:nl]
		}

		if err := t.emit(chunk); err != nil {
			return written, err
		}
		written += len(chunk)

		if nl < 0 {
			break
		}
		if _, err := t.w.Write([]byte{'\n'}); err != nil {
			return written, err
		}
		t.line = 0
		t.cut = false
		written++
	}
	return len(p), nil
}

// emit writes a newline-free chunk subject to the line cap.
func (t *truncatingWriter) emit(chunk []byte) error {
	if t.cut {
		return nil
	}
	if remaining := t.max - t.line; len(chunk) > remaining {
		chunk = chunk[:remaining]
		t.cut = true
	}
	t.line += len(chunk)
	if len(chunk) > 0 {
		if _, err := t.w.Write(chunk); err != nil {
			return err
		}
	}
	if t.cut {
		if _, err := io.WriteString(t.w, truncMarker); err != nil {
			return err
		}
	}
	return nil
}
