//go:build baremetal && (rp2040 || rp2350)

package main

import (
	"dancavallaro.com/deckuart/pkg/deck"
	"machine"
)

// The deck connector is wired to UART1 (GP8/GP9) on Pico boards.
func deckPorts() map[string]*machine.UART {
	return map[string]*machine.UART{deck.DefaultPort: machine.UART1}
}
