package heartbeats

import (
	"context"
	"fmt"
	"github.com/eclipse/paho.mqtt.golang"
	"math/rand"
	"regexp"
	"time"
)

const (
	Payload         = "OK"
	HeartbeatTopics = "deck/+/heartbeat"
	HandshakeTopics = "deck/+/handshake"
)

var topicRegex = regexp.MustCompile(`^deck/([^/]+)/(heartbeat|handshake)$`)

func HeartbeatTopic(device string) string {
	return fmt.Sprintf("deck/%s/heartbeat", device)
}

func HandshakeTopic(device string) string {
	return fmt.Sprintf("deck/%s/handshake", device)
}

type MQTTConfig struct {
	Username      string
	Password      string
	BrokerAddress string
	Logger        Logger
	DebugLogger   Logger
}

func connect(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerAddress)
	opts.SetClientID(generateClientId())
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOrderMatters(false)

	if cfg.Logger != nil {
		mqtt.ERROR = cfg.Logger
		mqtt.CRITICAL = cfg.Logger
		mqtt.WARN = cfg.Logger
	}
	if cfg.DebugLogger != nil {
		mqtt.DEBUG = cfg.DebugLogger
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

// MQTTPublisher publishes "OK" to a device's heartbeat and handshake topics.
type MQTTPublisher struct {
	client mqtt.Client
}

func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return &MQTTPublisher{client}, nil
}

func (pub *MQTTPublisher) PublishHeartbeat(ctx context.Context, device string) error {
	return pub.publish(ctx, HeartbeatTopic(device))
}

func (pub *MQTTPublisher) PublishHandshake(ctx context.Context, device string) error {
	return pub.publish(ctx, HandshakeTopic(device))
}

func (pub *MQTTPublisher) publish(ctx context.Context, topic string) error {
	token := pub.client.Publish(topic, 0, false, Payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (pub *MQTTPublisher) Close() {
	pub.client.Disconnect(1000)
}

type MQTTListener struct {
	client mqtt.Client
}

func NewMQTTListener(cfg MQTTConfig) (*MQTTListener, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return &MQTTListener{client}, nil
}

type MQTTMessageHandler interface {
	Heartbeat(device string)
	Handshake(device string)
	Invalid(topic string, message string)
}

func (lis MQTTListener) RegisterHandler(handler MQTTMessageHandler) error {
	token := lis.client.SubscribeMultiple(map[string]byte{
		HeartbeatTopics: 0,
		HandshakeTopics: 0,
	}, func(_ mqtt.Client, msg mqtt.Message) {
		dispatch(handler, msg.Topic(), string(msg.Payload()))
	})
	token.Wait()
	return token.Error()
}

func dispatch(handler MQTTMessageHandler, topic string, message string) {
	match := topicRegex.FindStringSubmatch(topic)
	if match == nil || message != Payload {
		handler.Invalid(topic, message)
		return
	}
	switch match[2] {
	case "heartbeat":
		handler.Heartbeat(match[1])
	case "handshake":
		handler.Handshake(match[1])
	}
}

func (lis MQTTListener) Close() {
	lis.client.Disconnect(1000)
}

func generateClientId() string {
	now := time.Now().Unix()
	random := rand.Intn(1000000)
	return fmt.Sprintf("mqttclient-%v-%v", now, random)
}
