package probe

import (
	"Go2FlowCount/internal/model"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestEndOfStream(t *testing.T) {
	if err := endOfStream(0); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF for a complete stream, got %v", err)
	}
	err := endOfStream(17)
	if !errors.Is(err, ErrDropped) {
		t.Fatalf("Expected ErrDropped, got %v", err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, model.ErrBadRecord) {
		t.Errorf("A lossy stream must be a fatal error, got %v", err)
	}
}

func TestStreamError(t *testing.T) {
	err := streamError("flows", nats.ErrSlowConsumer)
	if !errors.Is(err, ErrDropped) {
		t.Errorf("Expected a slow consumer to report ErrDropped, got %v", err)
	}
	if errors.Is(err, model.ErrBadRecord) {
		t.Errorf("A slow consumer must not be skipped as a bad record")
	}

	err = streamError("flows", fmt.Errorf("wrapped: %w", nats.ErrConnectionClosed))
	if !errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, ErrDropped) {
		t.Errorf("Unexpected mapping of a closed connection: %v", err)
	}
}
