package main

import (
	"context"
	"dancavallaro.com/deckuart/pkg/logging"
)

type handshakePublisher interface {
	PublishHandshake(ctx context.Context, device string) error
}

// ackForwarder publishes handshake acknowledgements from its own goroutine so a slow
// broker never holds up the parsing loop. Acks arriving while the queue is full are
// dropped.
type ackForwarder struct {
	device    string
	publisher handshakePublisher
	logger    logging.Logger
	queue     chan struct{}
}

func newAckForwarder(device string, publisher handshakePublisher, logger logging.Logger, depth int) *ackForwarder {
	return &ackForwarder{device: device, publisher: publisher, logger: logger, queue: make(chan struct{}, depth)}
}

// Notify never blocks.
func (f *ackForwarder) Notify() {
	select {
	case f.queue <- struct{}{}:
	default:
		f.logger.Printf("Handshake queue full, dropping acknowledgement for device %s\n", f.device)
	}
}

func (f *ackForwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.queue:
			if err := f.publisher.PublishHandshake(ctx, f.device); err != nil {
				f.logger.Printf("Failed to publish handshake for device %s: %v\n", f.device, err)
			}
		}
	}
}
