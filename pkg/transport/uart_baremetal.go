//go:build baremetal

package transport

import "machine"

// UART is a Transport over TinyGo on-chip UARTs.
type UART = ChipTransport[*machine.UART]

// DefaultPorts names UART0 and maps "UART2", the deck connector's port name, to the
// board's default UART.
func DefaultPorts() map[string]*machine.UART {
	return map[string]*machine.UART{
		"0":     machine.UART0,
		"UART0": machine.UART0,
		"UART2": machine.DefaultUART,
	}
}

// NewUART returns an unconfigured UART transport over ports, or DefaultPorts when nil.
func NewUART(ports map[string]*machine.UART) *UART {
	if ports == nil {
		ports = DefaultPorts()
	}
	return &UART{
		Ports: ports,
		Setup: func(uart *machine.UART, baudRate int) error {
			return uart.Configure(machine.UARTConfig{BaudRate: uint32(baudRate)})
		},
	}
}

// New ignores backend: only the on-chip UART exists on baremetal targets.
func New(backend string) (Transport, error) {
	return NewUART(nil), nil
}
