package transport

import (
	"strings"
	"sync"
)

// Mock implements Transport for testing. Bytes queued with Feed are handed out one
// per TryReadByte call, in order.
type Mock struct {
	ConfigureErr error
	WriteErr     error
	ReadErr      error

	mu         sync.Mutex
	configured []Config
	pending    []byte
	written    []string
	reads      int
	closed     bool

	// OnRead, when set, is called before every read attempt with the attempt number.
	OnRead func(attempt int)
}

func (m *Mock) Configure(cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured = append(m.configured, cfg)
	if m.ConfigureErr != nil {
		return m.ConfigureErr
	}
	if len(m.configured) > 1 {
		return ErrAlreadyConfigured
	}
	return nil
}

func (m *Mock) TryReadByte() (byte, bool, error) {
	m.mu.Lock()
	m.reads++
	attempt := m.reads
	onRead := m.OnRead
	m.mu.Unlock()

	if onRead != nil {
		onRead(attempt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return 0, false, m.ReadErr
	}
	if len(m.pending) == 0 {
		return 0, false, nil
	}
	b := m.pending[0]
	m.pending = m.pending[1:]
	return b, true, nil
}

func (m *Mock) WriteString(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.written = append(m.written, s)
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Feed queues inbound bytes.
func (m *Mock) Feed(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, s...)
}

func (m *Mock) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Mock) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}

func (m *Mock) WrittenString() string {
	return strings.Join(m.Written(), "")
}

func (m *Mock) Configured() []Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Config(nil), m.configured...)
}

func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
