// Package config loads deckd settings from an optional YAML file.
package config

import (
	"dancavallaro.com/deckuart/pkg/deck"
	"dancavallaro.com/deckuart/pkg/heartbeats"
	"dancavallaro.com/deckuart/pkg/transport"
	"fmt"
	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

type Config struct {
	Device    string    `yaml:"device"`
	Logger    string    `yaml:"logger"`
	Serial    Serial    `yaml:"serial"`
	Handshake Handshake `yaml:"handshake"`
	Board     Board     `yaml:"board"`
	Heartbeat Heartbeat `yaml:"heartbeat"`
	MQTT      MQTT      `yaml:"mqtt"`
}

type Serial struct {
	Backend  string `yaml:"backend"`
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud"`
}

type Handshake struct {
	WarmUp       time.Duration `yaml:"warmUp"`
	PollInterval time.Duration `yaml:"pollInterval"`
	BufferSize   int           `yaml:"bufferSize"`
	TrimCR       bool          `yaml:"trimCR"`
}

// Board is the expansion board deckd reports as detected at startup.
type Board struct {
	VID  uint8  `yaml:"vid"`
	PID  uint8  `yaml:"pid"`
	Name string `yaml:"name"`
}

type Heartbeat struct {
	Interval time.Duration `yaml:"interval"`
	Message  string        `yaml:"message"`
}

type MQTT struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func Default() Config {
	return Config{
		Logger: "std",
		Serial: Serial{
			Backend:  transport.BackendAlbenik,
			Port:     "/dev/ttyUSB0",
			BaudRate: deck.DefaultBaudRate,
		},
		Handshake: Handshake{
			WarmUp:       deck.DefaultWarmUp,
			PollInterval: deck.DefaultPollPeriod,
			BufferSize:   deck.DefaultBufferSize,
		},
		Board: Board{
			VID:  deck.VendorBitcraze,
			PID:  deck.ProductUARTESP32,
			Name: "uart_esp32",
		},
		Heartbeat: Heartbeat{
			Interval: heartbeats.DefaultInterval,
			Message:  heartbeats.DefaultMessage,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if cfg.Device == "" {
		id, err := machineid.ProtectedID("deckuart")
		if err != nil {
			return cfg, fmt.Errorf("no device id configured and machine id unavailable: %w", err)
		}
		cfg.Device = id[:12]
	}
	return cfg, cfg.Validate()
}

func (cfg Config) Validate() error {
	switch {
	case cfg.Serial.Port == "":
		return fmt.Errorf("serial.port is required")
	case cfg.Serial.BaudRate <= 0:
		return fmt.Errorf("serial.baud must be positive")
	case cfg.Handshake.WarmUp < 0:
		return fmt.Errorf("handshake.warmUp must not be negative")
	case cfg.Handshake.PollInterval <= 0:
		return fmt.Errorf("handshake.pollInterval must be positive")
	case cfg.Handshake.BufferSize < 2:
		return fmt.Errorf("handshake.bufferSize must be at least 2")
	case cfg.Heartbeat.Interval <= 0:
		return fmt.Errorf("heartbeat.interval must be positive")
	}
	return nil
}

// Driver builds the deck driver configuration.
func (cfg Config) Driver() deck.Config {
	driver := deck.DefaultConfig()
	driver.Transport = transport.Config{Port: cfg.Serial.Port, BaudRate: cfg.Serial.BaudRate}
	driver.WarmUp = cfg.Handshake.WarmUp
	driver.PollInterval = cfg.Handshake.PollInterval
	driver.BufferSize = cfg.Handshake.BufferSize
	driver.TrimCR = cfg.Handshake.TrimCR
	return driver
}

func (cfg Config) BoardInfo() deck.Info {
	return deck.Info{VID: cfg.Board.VID, PID: cfg.Board.PID, Name: cfg.Board.Name}
}
