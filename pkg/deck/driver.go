// Package deck implements the UART handshake deck driver: it greets the companion
// microcontroller once and then watches the serial line for its acknowledgement.
package deck

import (
	"context"
	"dancavallaro.com/deckuart/pkg/linebuf"
	"dancavallaro.com/deckuart/pkg/sched"
	"dancavallaro.com/deckuart/pkg/transport"
	"errors"
	"fmt"
	"go.uber.org/atomic"
	"io"
	"log"
	"sync"
	"time"
)

const (
	Greeting = "HELLO\n"
	Ack      = "OK"

	DefaultPort       = "UART2"
	DefaultBaudRate   = 115200
	DefaultWarmUp     = 1000 * time.Millisecond
	DefaultPollPeriod = 5 * time.Millisecond
	DefaultBufferSize = 32

	TaskName      = "ESP32_UART"
	TaskStackSize = 256
	TaskPriority  = 2
)

var ErrActivation = errors.New("deck activation failed")

type Config struct {
	Transport transport.Config
	// WarmUp is how long to wait after configuring the port before greeting the peer.
	WarmUp       time.Duration
	PollInterval time.Duration
	BufferSize   int
	// TrimCR drops a trailing '\r' before comparing a line, accepting CRLF peers.
	TrimCR bool
	Task   sched.TaskSpec
}

func DefaultConfig() Config {
	return Config{
		Transport:    transport.Config{Port: DefaultPort, BaudRate: DefaultBaudRate},
		WarmUp:       DefaultWarmUp,
		PollInterval: DefaultPollPeriod,
		BufferSize:   DefaultBufferSize,
		Task:         sched.TaskSpec{Name: TaskName, StackSize: TaskStackSize, Priority: TaskPriority},
	}
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

var discard Logger = log.New(io.Discard, "", 0)

// Spawner starts the parsing loop as its own task. *sched.Scheduler satisfies it.
type Spawner interface {
	Spawn(spec sched.TaskSpec, fn sched.TaskFunc) error
}

type Driver struct {
	cfg     Config
	port    transport.Transport
	spawner Spawner
	logger  Logger
	onAck   func()

	buf *linebuf.Buffer

	activateMu  sync.Mutex
	initialized atomic.Bool
	detected    atomic.Bool
	acks        atomic.Int64
}

func NewDriver(cfg Config, port transport.Transport, spawner Spawner, logger Logger) *Driver {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollPeriod
	}
	if logger == nil {
		logger = discard
	}
	return &Driver{
		cfg:     cfg,
		port:    port,
		spawner: spawner,
		logger:  logger,
		buf:     linebuf.New(cfg.BufferSize),
	}
}

// OnAck registers fn to be called from the parsing loop for every acknowledgement.
// It must be set before Activate.
func (d *Driver) OnAck(fn func()) {
	d.onAck = fn
}

// Activate configures the port, greets the peer and spawns the parsing loop. Calls
// after the first successful one do nothing. A failed activation may be retried.
func (d *Driver) Activate(ctx context.Context, info Info) error {
	d.activateMu.Lock()
	defer d.activateMu.Unlock()

	if d.initialized.Load() {
		return nil
	}

	d.logger.Println("UART ESP32 Deck Initialization")

	if err := d.port.Configure(d.cfg.Transport); err != nil {
		return fmt.Errorf("%w: configure %s: %v", ErrActivation, d.cfg.Transport.Port, err)
	}

	if err := sched.Sleep(ctx, d.cfg.WarmUp); err != nil {
		return fmt.Errorf("%w: warm-up: %v", ErrActivation, err)
	}

	if err := d.port.WriteString(Greeting); err != nil {
		return fmt.Errorf("%w: send handshake: %v", ErrActivation, err)
	}

	if err := d.spawner.Spawn(d.cfg.Task, d.Run); err != nil {
		return fmt.Errorf("%w: %v", ErrActivation, err)
	}

	d.initialized.Store(true)
	return nil
}

// Run polls the port until ctx is done or a read fails.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if err := d.poll(); err != nil {
			return err
		}
		if err := sched.Sleep(ctx, d.cfg.PollInterval); err != nil {
			return err
		}
	}
}

func (d *Driver) poll() error {
	c, ok, err := d.port.TryReadByte()
	if err != nil {
		return fmt.Errorf("read %s: %w", d.cfg.Transport.Port, err)
	}
	if !ok {
		return nil
	}

	if c != '\n' {
		d.buf.Append(c)
		return nil
	}

	line := d.buf.TakeLine()
	if d.cfg.TrimCR && len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	if line == Ack {
		d.acknowledged()
	}
	return nil
}

func (d *Driver) acknowledged() {
	d.logger.Println("ESP32 Handshake OK")
	d.detected.Store(true)
	d.acks.Inc()
	if d.onAck != nil {
		d.onAck()
	}
}

func (d *Driver) Initialized() bool {
	return d.initialized.Load()
}

// Detected reports whether the peer has acknowledged at least once.
func (d *Driver) Detected() bool {
	return d.detected.Load()
}

// Test is the registry's self-test hook.
func (d *Driver) Test() bool {
	return d.Detected()
}

func (d *Driver) Acks() int64 {
	return d.acks.Load()
}

func (d *Driver) Close() error {
	return d.port.Close()
}

// Registration describes this driver to a Registry.
func (d *Driver) Registration() Registration {
	return Registration{
		VID:       VendorBitcraze,
		PID:       ProductUARTESP32,
		Name:      "uart_esp32",
		Resources: UsingUART2,
		Init:      d.Activate,
		Test:      d.Test,
	}
}
