package annotate

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// LineReader reads prompt answers while honoring context cancellation, so
// Ctrl-C aborts a review cleanly instead of blocking on stdin.
type LineReader struct {
	reader *bufio.Reader
}

// NewLineReader wraps an input stream, usually os.Stdin.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReader(r)}
}

// ReadLine returns the next line with surrounding whitespace trimmed, or the
// context's error if it is canceled first. The pending read stays parked on
// the underlying stream; after cancellation the caller is expected to stop.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		line, err := l.reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && res.line == "" {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}
