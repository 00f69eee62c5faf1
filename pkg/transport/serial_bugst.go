//go:build !baremetal

package transport

import (
	"fmt"
	"go.bug.st/serial"
	"sync"
)

// BugST is a Transport over go.bug.st/serial.
type BugST struct {
	mu   sync.Mutex
	port serial.Port
	cfg  Config
	buf  [1]byte
}

func (t *BugST) Configure(cfg Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port != nil {
		return ErrAlreadyConfigured
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return err
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	t.port = port
	t.cfg = cfg
	return nil
}

func (t *BugST) TryReadByte() (byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return 0, false, ErrNotConfigured
	}
	n, err := t.port.Read(t.buf[:])
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return t.buf[0], true, nil
}

func (t *BugST) WriteString(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ErrNotConfigured
	}
	_, err := t.port.Write([]byte(s))
	return err
}

func (t *BugST) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

func (t *BugST) PortName() string {
	return t.cfg.Port
}
