//go:build baremetal

package main

import (
	"context"
	"dancavallaro.com/deckuart/pkg/deck"
	"dancavallaro.com/deckuart/pkg/sched"
	"dancavallaro.com/deckuart/pkg/transport"
	"log"
	"os"
)

func main() {
	logger := log.New(os.Stdout, "[deck] ", 0)
	scheduler := sched.New(context.Background(), log.New(os.Stdout, "[sched] ", 0))

	driver := deck.NewDriver(deck.DefaultConfig(), transport.NewUART(deckPorts()), scheduler, logger)

	registry := deck.NewRegistry(logger)
	if err := registry.Register(driver.Registration()); err != nil {
		logger.Println(err)
		halt()
	}

	board := deck.Info{VID: deck.VendorBitcraze, PID: deck.ProductUARTESP32, Name: "uart_esp32"}
	if err := registry.Discover(context.Background(), board); err != nil {
		logger.Println(err)
		halt()
	}

	if err := scheduler.Wait(); err != nil {
		logger.Println(err)
	}
	halt()
}

func halt() {
	select {}
}
