package probe

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/model"
	"log"

	"github.com/nats-io/nats.go"
)

// Publisher is responsible for publishing flow records to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish serializes a flow record and publishes it to the configured subject.
func (p *Publisher) Publish(rec *model.FlowRecord) error {
	return p.nc.Publish(p.subject, MarshalRecord(rec))
}

// Finish publishes the empty message that marks the end of the stream.
func (p *Publisher) Finish() error {
	if err := p.nc.Publish(p.subject, nil); err != nil {
		return err
	}
	return p.nc.Flush()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
