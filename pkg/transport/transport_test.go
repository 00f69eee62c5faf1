//go:build !baremetal

package transport

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := Config{Port: "/dev/ttyUSB0"}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, 115200, cfg.BaudRate)
	assert.Equal(t, time.Millisecond, cfg.ReadTimeout)

	_, err = Config{}.withDefaults()
	assert.Error(t, err)
}

func TestNewBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		want    interface{}
	}{
		{"default", "", &Serial{}},
		{"albenik", BackendAlbenik, &Serial{}},
		{"bugst", BackendBugST, &BugST{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.backend)
			require.NoError(t, err)
			assert.IsType(t, tt.want, tr)
		})
	}

	_, err := New("carrier-pigeon")
	assert.Error(t, err)
}

func TestUnconfiguredTransports(t *testing.T) {
	for _, tr := range []Transport{&Serial{}, &BugST{}} {
		_, _, err := tr.TryReadByte()
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.ErrorIs(t, tr.WriteString("HELLO\n"), ErrNotConfigured)
		assert.NoError(t, tr.Close())
	}
}

func TestConfigureMissingDevice(t *testing.T) {
	for _, tr := range []Transport{&Serial{}, &BugST{}} {
		err := tr.Configure(Config{Port: "/dev/does-not-exist-deckuart", BaudRate: 115200})
		assert.Error(t, err)
	}
}

func TestMockFeedsOneBytePerRead(t *testing.T) {
	m := &Mock{}
	require.NoError(t, m.Configure(Config{Port: "UART2"}))
	assert.ErrorIs(t, m.Configure(Config{Port: "UART2"}), ErrAlreadyConfigured)

	m.Feed("OK")
	b, ok, err := m.TryReadByte()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, byte('O'), b)
	assert.Equal(t, 1, m.Pending())

	b, ok, _ = m.TryReadByte()
	assert.True(t, ok)
	assert.Equal(t, byte('K'), b)

	_, ok, err = m.TryReadByte()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, m.Reads())
}

func TestMockErrors(t *testing.T) {
	boom := errors.New("boom")
	m := &Mock{ConfigureErr: boom, WriteErr: boom, ReadErr: boom}
	assert.ErrorIs(t, m.Configure(Config{}), boom)
	assert.ErrorIs(t, m.WriteString("x"), boom)
	_, _, err := m.TryReadByte()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.Written())
}
