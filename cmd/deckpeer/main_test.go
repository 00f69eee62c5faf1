package main

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPeerAnswersGreeting(t *testing.T) {
	var out bytes.Buffer
	p := newPeer(&out, false)

	require.NoError(t, p.consume([]byte("HEL")))
	assert.Empty(t, out.String())
	require.NoError(t, p.consume([]byte("LO\nnoise\r\nHELLO\r\n")))
	assert.Equal(t, "OK\nOK\n", out.String())
}

func TestSilentPeer(t *testing.T) {
	var out bytes.Buffer
	p := newPeer(&out, true)
	require.NoError(t, p.consume([]byte("HELLO\n")))
	assert.Empty(t, out.String())
}

func TestPeerSend(t *testing.T) {
	var out bytes.Buffer
	p := newPeer(&out, false)
	require.NoError(t, p.send("status=1"))
	assert.Equal(t, "status=1\n", out.String())
}
