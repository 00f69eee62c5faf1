package main

import (
	"context"
	"dancavallaro.com/deckuart/pkg/config"
	"dancavallaro.com/deckuart/pkg/deck"
	"dancavallaro.com/deckuart/pkg/heartbeats"
	"dancavallaro.com/deckuart/pkg/logging"
	"dancavallaro.com/deckuart/pkg/sched"
	"dancavallaro.com/deckuart/pkg/transport"
	"flag"
	"go.uber.org/multierr"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	configPath   = flag.String("config", "", "YAML config file")
	device       = flag.String("device", "", "serial device connected to the deck's microcontroller")
	baud         = flag.Int("baud", 0, "baudrate to use")
	backend      = flag.String("backend", "", "serial backend: albenik or bugst")
	warmUp       = flag.Duration("warmUp", -1, "delay between opening the port and sending the handshake")
	logger       = flag.String("logger", "", "log sink: std or glog")
	mqttAddress  = flag.String("mqttAddress", "", "Address:port of MQTT broker, empty disables publishing")
	mqttUsername = flag.String("mqttUsername", "", "MQTT username")
	mqttPassword = flag.String("mqttPassword", "", "MQTT password")
)

func loadConfig() config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Serial.Port = *device
		case "baud":
			cfg.Serial.BaudRate = *baud
		case "backend":
			cfg.Serial.Backend = *backend
		case "warmUp":
			cfg.Handshake.WarmUp = *warmUp
		case "logger":
			cfg.Logger = *logger
		case "mqttAddress":
			cfg.MQTT.Address = *mqttAddress
		case "mqttUsername":
			cfg.MQTT.Username = *mqttUsername
		case "mqttPassword":
			cfg.MQTT.Password = *mqttPassword
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

func newLogger(kind string, prefix string) logging.Logger {
	l, err := logging.Sink(kind, prefix)
	if err != nil {
		log.Fatal(err)
	}
	return l
}

func main() {
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("[deckd] ")

	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := sched.New(ctx, newLogger(cfg.Logger, "sched"))

	port, err := transport.New(cfg.Serial.Backend)
	if err != nil {
		log.Fatal(err)
	}
	driver := deck.NewDriver(cfg.Driver(), port, scheduler, newLogger(cfg.Logger, "deck"))

	var publishers []heartbeats.Publisher
	var mqttPublisher *heartbeats.MQTTPublisher
	if cfg.MQTT.Address != "" {
		mqttPublisher, err = heartbeats.NewMQTTPublisher(heartbeats.MQTTConfig{
			BrokerAddress: cfg.MQTT.Address,
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			Logger:        log.New(os.Stdout, "[mqtt] ", 0),
		})
		if err != nil {
			log.Panic(err)
		}
		publishers = append(publishers, mqttPublisher)

		forwarder := newAckForwarder(cfg.Device, mqttPublisher, log.Default(), 16)
		driver.OnAck(forwarder.Notify)
		if err := scheduler.Spawn(sched.TaskSpec{Name: "ACK_MQTT", StackSize: 128, Priority: 1}, forwarder.Run); err != nil {
			log.Panic(err)
		}
	}

	registry := deck.NewRegistry(newLogger(cfg.Logger, "registry"))
	if err := registry.Register(driver.Registration()); err != nil {
		log.Panic(err)
	}

	heartbeat := heartbeats.Task{
		Interval:   cfg.Heartbeat.Interval,
		Message:    cfg.Heartbeat.Message,
		Device:     cfg.Device,
		Logger:     newLogger(cfg.Logger, "heartbeat"),
		Publishers: publishers,
	}
	if err := scheduler.Spawn(heartbeat.Spec(), heartbeat.Run); err != nil {
		log.Panic(err)
	}

	log.Printf("Device %s using %s at %d baud\n", cfg.Device, cfg.Serial.Port, cfg.Serial.BaudRate)
	discoverErr := registry.Discover(ctx, cfg.BoardInfo())
	if discoverErr != nil {
		log.Printf("Discovery failed: %v\n", discoverErr)
		stop()
	}

	go reportSelfTest(ctx, registry, cfg.Handshake.WarmUp+5*time.Second)

	runErr := scheduler.Wait()

	log.Println("Shutting down now...")
	closeErr := driver.Close()
	if mqttPublisher != nil {
		mqttPublisher.Close()
	}
	logging.Flush()
	if err := multierr.Combine(discoverErr, runErr, closeErr); err != nil {
		log.Fatal(err)
	}
}

// reportSelfTest logs drivers whose peer has not answered once after grace has passed.
func reportSelfTest(ctx context.Context, registry *deck.Registry, grace time.Duration) {
	if err := sched.Sleep(ctx, grace); err != nil {
		return
	}
	if failed := registry.Test(); len(failed) > 0 {
		log.Printf("No handshake acknowledgement yet from: %v\n", failed)
	}
}
