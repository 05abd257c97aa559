package probe

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/nats-io/nats.go"
)

const defaultBuffer = 4096

// ErrDropped is returned when NATS discarded records because the consumer
// fell behind. The stream is incomplete and the run must not be reported.
var ErrDropped = errors.New("records were dropped by a slow consumer")

// Subscriber reads flow records from a NATS subject. An empty message ends
// the stream.
type Subscriber struct {
	ctx     context.Context
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber connects to NATS and subscribes to the configured subject.
// Next stops waiting when ctx is done.
func NewSubscriber(ctx context.Context, cfg config.NATSConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)

	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	sub, err := nc.SubscribeSync(cfg.Subject)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to '%s': %w", cfg.Subject, err)
	}
	if err := sub.SetPendingLimits(buffer, -1); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to set pending limits: %w", err)
	}
	log.Printf("Subscribed to '%s'. Waiting for records...", cfg.Subject)
	return &Subscriber{ctx: ctx, nc: nc, sub: sub, subject: cfg.Subject}, nil
}

// Next blocks until the next record arrives.
func (s *Subscriber) Next() (*model.FlowRecord, error) {
	msg, err := s.sub.NextMsgWithContext(s.ctx)
	if err != nil {
		return nil, streamError(s.subject, err)
	}
	rec, err := decodeMsg(msg.Data)
	if errors.Is(err, io.EOF) {
		dropped, derr := s.sub.Dropped()
		if derr != nil {
			return nil, fmt.Errorf("failed to read dropped count: %w", derr)
		}
		return nil, endOfStream(dropped)
	}
	return rec, err
}

// streamError maps a subscription error to a fatal stream error.
func streamError(subject string, err error) error {
	if errors.Is(err, nats.ErrSlowConsumer) {
		return fmt.Errorf("subscription to '%s': %w: %v", subject, ErrDropped, err)
	}
	return fmt.Errorf("subscription to '%s' failed: %w", subject, err)
}

// endOfStream returns io.EOF for a complete stream, or ErrDropped when the
// subscription lost messages along the way.
func endOfStream(dropped int) error {
	if dropped > 0 {
		return fmt.Errorf("%w: %d messages lost before end of stream", ErrDropped, dropped)
	}
	return io.EOF
}

func decodeMsg(data []byte) (*model.FlowRecord, error) {
	if len(data) == 0 {
		return nil, io.EOF
	}
	rec, err := UnmarshalRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBadRecord, err)
	}
	return rec, nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() error {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
	return nil
}
