package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// Reader is the subset of *kafka.Reader used by Source.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Options describe the consumer group.
type Options struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Source delivers events published on a topic by the feed ingester.
type Source struct {
	reader Reader
	logger *slog.Logger
}

var _ ports.EntrySource = (*Source)(nil)

// NewSource joins the consumer group described by opts.
func NewSource(opts Options, logger *slog.Logger) (*Source, error) {
	if len(opts.Brokers) == 0 || opts.Topic == "" || opts.GroupID == "" {
		return nil, fmt.Errorf("%w: kafka source needs brokers, topic and group id", domain.ErrInvalidConfig)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  opts.Brokers,
		Topic:    opts.Topic,
		GroupID:  opts.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return NewSourceWithReader(reader, logger), nil
}

// NewSourceWithReader wraps an existing reader.
func NewSourceWithReader(reader Reader, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{reader: reader, logger: logger}
}

// Receive blocks for the next decodable message. Malformed messages are
// committed and skipped so they are never redelivered.
func (s *Source) Receive(ctx context.Context) (ports.Delivery, error) {
	for {
		m, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ports.Delivery{}, io.EOF
			}
			return ports.Delivery{}, fmt.Errorf("fetch message: %w", err)
		}

		ev, err := domain.DecodeEvent(m.Value)
		if err != nil {
			s.logger.Warn("skipping malformed message",
				"partition", m.Partition, "offset", m.Offset, "error", err)
			if err := s.reader.CommitMessages(ctx, m); err != nil {
				s.logger.Error("commit malformed message", "offset", m.Offset, "error", err)
			}
			continue
		}

		return ports.Delivery{
			Event: ev,
			Ack: func(ctx context.Context) error {
				return s.reader.CommitMessages(ctx, m)
			},
		}, nil
	}
}

// Close leaves the consumer group.
func (s *Source) Close() error {
	return s.reader.Close()
}
