package jsonl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

const maxLineBytes = 4 << 20

// Source replays events stored one JSON object per line.
type Source struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	logger  *slog.Logger
}

var _ ports.EntrySource = (*Source)(nil)

// Open reads events from path.
func Open(path string, logger *slog.Logger) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	return NewSource(f, f, logger), nil
}

// NewSource reads events from r; closer may be nil.
func NewSource(r io.Reader, closer io.Closer, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Source{scanner: scanner, closer: closer, logger: logger}
}

// Receive returns the next event, skipping blank and malformed lines. It
// returns io.EOF at end of input.
func (s *Source) Receive(ctx context.Context) (ports.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return ports.Delivery{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return ports.Delivery{}, fmt.Errorf("%w: read line %d: %w", ports.ErrSourceBroken, s.line+1, err)
			}
			return ports.Delivery{}, io.EOF
		}
		s.line++

		raw := strings.TrimSpace(s.scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		ev, err := domain.DecodeEvent([]byte(raw))
		if err != nil {
			s.logger.Warn("skipping malformed line", "line", s.line, "error", err)
			continue
		}
		return ports.Delivery{Event: ev}, nil
	}
}

// Close releases the underlying file.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
