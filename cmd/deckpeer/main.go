package main

import (
	"dancavallaro.com/deckuart/pkg/deck"
	"dancavallaro.com/deckuart/pkg/linebuf"
	"flag"
	"github.com/abiosoft/ishell"
	"github.com/albenik/go-serial/v2"
	"io"
	"log"
	"strings"
	"sync"
)

const Required = "<REQUIRED>"

var (
	device      = flag.String("device", Required, "serial device the deck driver talks to")
	baud        = flag.Int("baud", deck.DefaultBaudRate, "baudrate to use")
	silent      = flag.Bool("silent", false, "never answer the handshake")
	interactive = flag.Bool("i", false, "start an interactive shell for sending lines")
)

func openDevice(device string, baud int) *serial.Port {
	port, err := serial.Open(
		device,
		serial.WithBaudrate(baud),
		serial.WithReadTimeout(1000),
		serial.WithWriteTimeout(1000),
	)
	if err != nil {
		panic(err)
	}
	return port
}

// peer plays the companion microcontroller: it answers every greeting with an
// acknowledgement.
type peer struct {
	mu     sync.Mutex
	w      io.Writer
	silent bool
	buf    *linebuf.Buffer
}

func newPeer(w io.Writer, silent bool) *peer {
	return &peer{w: w, silent: silent, buf: linebuf.New(256)}
}

func (p *peer) send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.w, line+"\n")
	return err
}

// consume feeds received bytes through the line buffer, answering complete lines.
func (p *peer) consume(data []byte) error {
	for _, b := range data {
		if b != '\n' {
			p.buf.Append(b)
			continue
		}
		line := strings.TrimSuffix(p.buf.TakeLine(), "\r")
		log.Printf("< %s\n", line)
		if line+"\n" == deck.Greeting && !p.silent {
			log.Printf("> %s\n", deck.Ack)
			if err := p.send(deck.Ack); err != nil {
				return err
			}
		}
	}
	return nil
}

func readAndReply(port io.Reader, p *peer) {
	buff := make([]byte, 100)
	for {
		n, err := port.Read(buff)
		if err != nil {
			panic(err)
		}
		if err := p.consume(buff[:n]); err != nil {
			panic(err)
		}
	}
}

func runShell(p *peer) {
	shell := ishell.New()
	shell.AddCmd(&ishell.Cmd{
		Name: "ok",
		Help: "send an acknowledgement",
		Func: func(c *ishell.Context) {
			if err := p.send(deck.Ack); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "send",
		Help: "send <text>: send a line",
		Func: func(c *ishell.Context) {
			if err := p.send(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "garbage",
		Help: "send a line longer than the driver's buffer",
		Func: func(c *ishell.Context) {
			if err := p.send(strings.Repeat("#", 2*deck.DefaultBufferSize)); err != nil {
				c.Err(err)
			}
		},
	})
	shell.Run()
	shell.Close()
}

func main() {
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("[deckpeer] ")

	if *device == Required {
		panic("must specify path to device!")
	}

	port := openDevice(*device, *baud)
	p := newPeer(port, *silent)

	if *interactive {
		go readAndReply(port, p)
		runShell(p)
		return
	}
	readAndReply(port, p)
}
