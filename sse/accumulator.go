package sse

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/probelabs/apicheck/oai"
)

// Accumulator folds streamed completion chunks into one logical message.
// Delta fragments are concatenated in arrival order, never reordered or
// trimmed. The zero value is ready to use.
type Accumulator struct {
	text       strings.Builder
	chunkCount int
	usage      *oai.Usage
	terminated bool
	finished   bool
}

// Add folds one chunk into the accumulated message. Contentless chunks
// (role announcements, finish markers) contribute nothing to the text and
// do not count as chunks; a usage block is recorded from whichever chunk
// carries one.
func (a *Accumulator) Add(c oai.Chunk) {
	if c.Usage != nil {
		u := *c.Usage
		a.usage = &u
	}
	if content := c.DeltaContent(); content != "" {
		a.text.WriteString(content)
		a.chunkCount++
	}
}

// Finish freezes the result. terminated records whether the [DONE] sentinel
// was observed; a stream that just closes without it is a conformance
// defect the caller must flag.
func (a *Accumulator) Finish(terminated bool) {
	a.terminated = terminated
	a.finished = true
}

// Text returns the ordered concatenation of all delta fragments seen so far.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// ChunkCount returns how many content-bearing chunks were folded in.
func (a *Accumulator) ChunkCount() int {
	return a.chunkCount
}

// Usage returns the recorded usage block, or nil when no chunk carried one.
func (a *Accumulator) Usage() *oai.Usage {
	return a.usage
}

// Terminated reports whether the stream ended with the [DONE] sentinel.
func (a *Accumulator) Terminated() bool {
	return a.terminated
}

// Finished reports whether the result has been frozen.
func (a *Accumulator) Finished() bool {
	return a.finished
}

// Drain consumes dec until the terminator or end of input, folding every
// chunk into acc. The accumulator is always finished on return, so the
// terminated flag is meaningful even when the read fails. A chunk that is
// valid JSON but not chunk-shaped is skipped, matching the decoder's
// treatment of malformed frames.
func Drain(ctx context.Context, dec *Decoder, acc *Accumulator) error {
	for {
		if err := ctx.Err(); err != nil {
			acc.Finish(false)
			return err
		}
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			acc.Finish(dec.Terminated())
			return nil
		}
		if err != nil {
			acc.Finish(false)
			return err
		}
		if frame.Kind == FrameDone {
			acc.Finish(true)
			return nil
		}
		var chunk oai.Chunk
		if err := json.Unmarshal(frame.Data, &chunk); err != nil {
			continue
		}
		acc.Add(chunk)
	}
}
