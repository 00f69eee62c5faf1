package deck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Resource is a bit set of board pins a driver claims.
type Resource uint32

const (
	UsingUART1 Resource = 1 << iota
	UsingUART2
	UsingI2C
	UsingSPI
	UsingGPIO
)

var resourceNames = []string{"UART1", "UART2", "I2C", "SPI", "GPIO"}

func (r Resource) String() string {
	var names []string
	for i, name := range resourceNames {
		if r&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

const (
	VendorBitcraze   uint8 = 0xBC
	ProductUARTESP32 uint8 = 0x10
)

// Info identifies a board found on the expansion bus.
type Info struct {
	VID      uint8
	PID      uint8
	Name     string
	Revision string
}

func (info Info) String() string {
	return fmt.Sprintf("%s (vid=0x%02X pid=0x%02X)", info.Name, info.VID, info.PID)
}

type Registration struct {
	VID       uint8
	PID       uint8
	Name      string
	Resources Resource
	Init      func(ctx context.Context, info Info) error
	Test      func() bool
}

var ErrResourceConflict = errors.New("resource conflict")

type Registry struct {
	logger Logger

	mu     sync.Mutex
	regs   []Registration
	active []Registration
}

func NewRegistry(logger Logger) *Registry {
	if logger == nil {
		logger = discard
	}
	return &Registry{logger: logger}
}

func (r *Registry) Register(reg Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg.Name == "" {
		return errors.New("driver name is required")
	}
	if reg.VID == 0 && reg.PID == 0 {
		return fmt.Errorf("driver %s: vid/pid not set", reg.Name)
	}
	if reg.Init == nil {
		return fmt.Errorf("driver %s: no init function", reg.Name)
	}
	for _, existing := range r.regs {
		if existing.Name == reg.Name {
			return fmt.Errorf("driver %s already registered", reg.Name)
		}
	}
	r.regs = append(r.regs, reg)
	return nil
}

// Discover activates the registered driver for each board in infos. Boards without a
// driver are skipped. Activation stops at the first error.
func (r *Registry) Discover(ctx context.Context, infos ...Info) error {
	for _, info := range infos {
		reg, ok := r.lookup(info)
		if !ok {
			r.logger.Printf("No driver for board %s\n", info)
			continue
		}
		claimed, err := r.claim(reg)
		if err != nil {
			return err
		}
		r.logger.Printf("Activating driver %s for board %s\n", reg.Name, info)
		if err := reg.Init(ctx, info); err != nil {
			if claimed {
				r.release(reg)
			}
			return fmt.Errorf("driver %s: %w", reg.Name, err)
		}
	}
	return nil
}

// Test runs the self-test of every active driver and returns the names that failed.
func (r *Registry) Test() []string {
	r.mu.Lock()
	active := append([]Registration(nil), r.active...)
	r.mu.Unlock()

	var failed []string
	for _, reg := range active {
		if reg.Test != nil && !reg.Test() {
			failed = append(failed, reg.Name)
		}
	}
	return failed
}

func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.active))
	for _, reg := range r.active {
		names = append(names, reg.Name)
	}
	return names
}

func (r *Registry) lookup(info Info) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.regs {
		if reg.VID == info.VID && reg.PID == info.PID {
			return reg, true
		}
	}
	return Registration{}, false
}

// claim marks reg active. It reports false when reg was already active.
func (r *Registry) claim(reg Registration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.active {
		if other.Name == reg.Name {
			return false, nil
		}
		if clash := other.Resources & reg.Resources; clash != 0 {
			return false, fmt.Errorf("%w: %s and %s both use %s", ErrResourceConflict, other.Name, reg.Name, clash)
		}
	}
	r.active = append(r.active, reg)
	return true, nil
}

func (r *Registry) release(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, other := range r.active {
		if other.Name == reg.Name {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return
		}
	}
}
