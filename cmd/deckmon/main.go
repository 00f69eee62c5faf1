package main

import (
	"context"
	"dancavallaro.com/deckuart/pkg/awso"
	"dancavallaro.com/deckuart/pkg/heartbeats"
	"flag"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"log"
	"os"
	"os/signal"
	"syscall"
)

type Publisher interface {
	PublishHeartbeat(ctx context.Context, device string) error
	PublishHandshake(ctx context.Context, device string) error
}

type deckHandler struct {
	ctx       context.Context
	publisher Publisher
}

func (handler deckHandler) Heartbeat(device string) {
	log.Printf("Received heartbeat message for device %s\n", device)
	if err := handler.publisher.PublishHeartbeat(handler.ctx, device); err != nil {
		log.Printf("Failed to publish heartbeat for device %s: %v\n", device, err)
	}
}

func (handler deckHandler) Handshake(device string) {
	log.Printf("Received handshake acknowledgement for device %s\n", device)
	if err := handler.publisher.PublishHandshake(handler.ctx, device); err != nil {
		log.Printf("Failed to publish handshake for device %s: %v\n", device, err)
	}
}

func (handler deckHandler) Invalid(topic string, message string) {
	log.Printf("Received invalid message on topic '%s': %s\n", topic, message)
}

var (
	region          = flag.String("region", "us-east-1", "Cloudwatch region to use")
	metricNamespace = flag.String("metricNamespace", "Testing", "Metric namespace to publish in")
	metricDimension = flag.String("metricDimension", "Device", "Dimension name to use for identifying devices")
	mqttAddress     = flag.String("mqttAddress", "localhost:1883", "Address:port of MQTT broker")
	mqttUsername    = flag.String("mqttUsername", "<none>", "MQTT username")
	mqttPassword    = flag.String("mqttPassword", "<none>", "MQTT password")
)

func main() {
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("[deckmon] ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cw := awso.NewClientProvider(*region, func(cfg aws.Config) *cloudwatch.Client {
		log.Println("Creating new Cloudwatch client")
		return cloudwatch.NewFromConfig(cfg)
	})
	publisher := heartbeats.NewCloudwatchPublisher(
		heartbeats.CloudwatchProvider{ClientProvider: cw}, *metricNamespace, *metricDimension, log.Default(),
	)

	listener, err := heartbeats.NewMQTTListener(heartbeats.MQTTConfig{
		BrokerAddress: *mqttAddress,
		Username:      *mqttUsername,
		Password:      *mqttPassword,
		Logger:        log.New(os.Stdout, "[mqtt] ", 0),
	})
	if err != nil {
		log.Panic(err)
	}
	defer func() {
		log.Println("Shutting down MQTT listener now...")
		listener.Close()
	}()
	if err := listener.RegisterHandler(deckHandler{ctx, publisher}); err != nil {
		log.Panic(err)
	}

	<-ctx.Done()
}
