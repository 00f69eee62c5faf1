//go:build !baremetal

package transport

import (
	"fmt"
	"github.com/albenik/go-serial/v2"
	"sync"
)

// Serial is a Transport over github.com/albenik/go-serial/v2.
type Serial struct {
	mu   sync.Mutex
	port *serial.Port
	cfg  Config
	buf  [1]byte
}

func (s *Serial) Configure(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return ErrAlreadyConfigured
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return err
	}

	timeoutMs := int(cfg.ReadTimeout.Milliseconds())
	if timeoutMs < 1 {
		timeoutMs = 1
	}
	port, err := serial.Open(
		cfg.Port,
		serial.WithBaudrate(cfg.BaudRate),
		serial.WithReadTimeout(timeoutMs),
		serial.WithWriteTimeout(1000),
	)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	s.port = port
	s.cfg = cfg
	return nil
}

func (s *Serial) TryReadByte() (byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return 0, false, ErrNotConfigured
	}
	n, err := s.port.Read(s.buf[:])
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return s.buf[0], true, nil
}

func (s *Serial) WriteString(str string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrNotConfigured
	}
	_, err := s.port.Write([]byte(str))
	return err
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) PortName() string {
	return s.cfg.Port
}
