package main

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

type fakePublisher struct {
	events []string
	err    error
}

func (f *fakePublisher) PublishHeartbeat(ctx context.Context, device string) error {
	f.events = append(f.events, "heartbeat:"+device)
	return f.err
}

func (f *fakePublisher) PublishHandshake(ctx context.Context, device string) error {
	f.events = append(f.events, "handshake:"+device)
	return f.err
}

func TestHandlerForwardsEvents(t *testing.T) {
	pub := &fakePublisher{err: errors.New("throttled")}
	handler := deckHandler{context.Background(), pub}

	handler.Heartbeat("cf2")
	handler.Handshake("cf2")
	handler.Invalid("deck/cf2/heartbeat", "NOPE")

	assert.Equal(t, []string{"heartbeat:cf2", "handshake:cf2"}, pub.events)
}
