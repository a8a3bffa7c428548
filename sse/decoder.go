package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Decoder turns a line-oriented event stream into typed frames. It reads
// from any io.Reader, so tests can feed canned line sequences without a
// network; buffering across arbitrary chunk boundaries is bufio's problem,
// not the caller's.
type Decoder struct {
	scanner   *bufio.Scanner
	trace     func(line string)
	done      bool
	malformed int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{scanner: bufio.NewScanner(r)}
}

// Trace installs a hook invoked with every non-blank raw line, for wire
// debugging.
func (d *Decoder) Trace(fn func(line string)) {
	d.trace = fn
}

// Next returns the next data frame or the terminator. Ignorable lines are
// skipped silently; data payloads that are not well-formed JSON are counted
// and skipped, because one malformed keep-alive frame must not abort an
// otherwise-valid stream. After the terminator, and at end of input, Next
// returns io.EOF.
func (d *Decoder) Next() (Frame, error) {
	if d.done {
		return Frame{}, io.EOF
	}
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if d.trace != nil && strings.TrimSpace(line) != "" {
			d.trace(line)
		}
		frame := Classify(line)
		switch frame.Kind {
		case FrameIgnorable:
			continue
		case FrameDone:
			d.done = true
			return frame, nil
		case FrameData:
			if !json.Valid(frame.Data) {
				d.malformed++
				continue
			}
			return frame, nil
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("error scanning stream: %w", err)
	}
	return Frame{}, io.EOF
}

// Malformed returns how many data payloads were skipped for failing to
// parse as JSON.
func (d *Decoder) Malformed() int {
	return d.malformed
}

// Terminated reports whether the [DONE] sentinel was observed.
func (d *Decoder) Terminated() bool {
	return d.done
}
