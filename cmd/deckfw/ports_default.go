//go:build baremetal && !rp2040 && !rp2350

package main

import (
	"dancavallaro.com/deckuart/pkg/deck"
	"machine"
)

func deckPorts() map[string]*machine.UART {
	return map[string]*machine.UART{deck.DefaultPort: machine.DefaultUART}
}
