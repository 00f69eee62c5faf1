package transport

import (
	"fmt"
	"sync"
)

// Chip is the part of an on-chip UART driver a ChipTransport uses. TinyGo's
// *machine.UART satisfies it.
type Chip interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// ChipTransport is a Transport over named on-chip UARTs.
type ChipTransport[C Chip] struct {
	// Ports maps port names to UARTs the board exposes.
	Ports map[string]C
	// Setup applies the baud rate to a UART before it is used.
	Setup func(chip C, baudRate int) error

	mu         sync.Mutex
	chip       C
	configured bool
}

func (t *ChipTransport[C]) Configure(cfg Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.configured {
		return ErrAlreadyConfigured
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return err
	}

	chip, ok := t.Ports[cfg.Port]
	if !ok {
		return fmt.Errorf("unknown UART %s", cfg.Port)
	}
	if t.Setup != nil {
		if err := t.Setup(chip, cfg.BaudRate); err != nil {
			return fmt.Errorf("configure UART %s: %w", cfg.Port, err)
		}
	}
	t.chip = chip
	t.configured = true
	return nil
}

func (t *ChipTransport[C]) TryReadByte() (byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.configured {
		return 0, false, ErrNotConfigured
	}
	if t.chip.Buffered() == 0 {
		return 0, false, nil
	}
	b, err := t.chip.ReadByte()
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

func (t *ChipTransport[C]) WriteString(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.configured {
		return ErrNotConfigured
	}
	_, err := t.chip.Write([]byte(s))
	return err
}

// Close leaves the UART configured; on-chip peripherals are never released.
func (t *ChipTransport[C]) Close() error {
	return nil
}
