// Package transport provides byte-stream endpoints for talking to a deck's companion
// microcontroller: a non-blocking single byte read and a fire-and-forget string write.
package transport

import (
	"errors"
	"time"
)

var (
	ErrNotConfigured     = errors.New("transport not configured")
	ErrAlreadyConfigured = errors.New("transport already configured")
)

// Transport is a configured-once byte stream.
type Transport interface {
	// Configure opens the port. It may only succeed once.
	Configure(cfg Config) error
	// TryReadByte returns the next byte if one is available without waiting for more
	// than the configured read timeout. ok is false when nothing arrived.
	TryReadByte() (b byte, ok bool, err error)
	WriteString(s string) error
	Close() error
}

type Config struct {
	Port     string
	BaudRate int
	// ReadTimeout bounds how long TryReadByte waits for a byte. Zero selects
	// DefaultReadTimeout.
	ReadTimeout time.Duration
}

const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = time.Millisecond
)

func (cfg Config) withDefaults() (Config, error) {
	if cfg.Port == "" {
		return cfg, errors.New("serial port is required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return cfg, nil
}
