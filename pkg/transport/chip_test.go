package transport

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type fakeChip struct {
	rx      []byte
	tx      []byte
	readErr error
}

func (c *fakeChip) Buffered() int {
	return len(c.rx)
}

func (c *fakeChip) ReadByte() (byte, error) {
	if c.readErr != nil {
		return 0, c.readErr
	}
	b := c.rx[0]
	c.rx = c.rx[1:]
	return b, nil
}

func (c *fakeChip) Write(p []byte) (int, error) {
	c.tx = append(c.tx, p...)
	return len(p), nil
}

func TestChipTransportSelectsNamedPort(t *testing.T) {
	uart0, uart2 := &fakeChip{}, &fakeChip{rx: []byte("OK\n")}
	var setupBaud int
	tr := &ChipTransport[*fakeChip]{
		Ports: map[string]*fakeChip{"UART0": uart0, "UART2": uart2},
		Setup: func(chip *fakeChip, baudRate int) error {
			setupBaud = baudRate
			return nil
		},
	}

	require.NoError(t, tr.Configure(Config{Port: "UART2"}))
	assert.Equal(t, 115200, setupBaud)
	assert.ErrorIs(t, tr.Configure(Config{Port: "UART2"}), ErrAlreadyConfigured)

	require.NoError(t, tr.WriteString("HELLO\n"))
	assert.Equal(t, "HELLO\n", string(uart2.tx))
	assert.Empty(t, uart0.tx)

	var got []byte
	for {
		b, ok, err := tr.TryReadByte()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, b)
	}
	assert.Equal(t, "OK\n", string(got))
}

func TestChipTransportUnknownPort(t *testing.T) {
	tr := &ChipTransport[*fakeChip]{Ports: map[string]*fakeChip{"UART0": {}}}
	err := tr.Configure(Config{Port: "UART2"})
	assert.EqualError(t, err, "unknown UART UART2")
	assert.ErrorIs(t, tr.WriteString("x"), ErrNotConfigured)
}

func TestChipTransportRetriesAfterFailedSetup(t *testing.T) {
	boom := errors.New("pins busy")
	attempts := 0
	tr := &ChipTransport[*fakeChip]{
		Ports: map[string]*fakeChip{"UART2": {}},
		Setup: func(chip *fakeChip, baudRate int) error {
			attempts++
			if attempts == 1 {
				return boom
			}
			return nil
		},
	}

	assert.ErrorIs(t, tr.Configure(Config{Port: "UART2"}), boom)
	_, _, err := tr.TryReadByte()
	assert.ErrorIs(t, err, ErrNotConfigured)

	require.NoError(t, tr.Configure(Config{Port: "UART2"}))
	assert.Equal(t, 2, attempts)
}

func TestChipTransportReadError(t *testing.T) {
	boom := errors.New("framing error")
	tr := &ChipTransport[*fakeChip]{Ports: map[string]*fakeChip{"0": {rx: []byte("x"), readErr: boom}}}
	require.NoError(t, tr.Configure(Config{Port: "0"}))
	_, ok, err := tr.TryReadByte()
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}
