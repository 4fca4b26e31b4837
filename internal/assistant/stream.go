package assistant

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Stream yields the text chunks of one completion. It is finite and cannot
// be restarted; after io.EOF every Recv returns io.EOF.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	mu     sync.Mutex
	err    error
	closed bool
}

func newStream(body io.ReadCloser) *Stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{body: body, scanner: sc}
}

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Recv returns the next non-empty text chunk, or io.EOF at the end.
func (s *Stream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}
	if s.closed {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			// Blank separators, comments and event names.
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.err = io.EOF
			return "", s.err
		}

		var c chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			s.err = fmt.Errorf("decode stream chunk: %w", err)
			return "", s.err
		}
		if c.Error != nil {
			s.err = fmt.Errorf("assistant: %s", c.Error.Message)
			return "", s.err
		}

		var b strings.Builder
		for _, ch := range c.Choices {
			b.WriteString(ch.Delta.Content)
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}

	if err := s.scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		s.err = err
		return "", err
	}
	s.err = io.EOF
	return "", s.err
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
