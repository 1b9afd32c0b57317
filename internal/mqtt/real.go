package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

// bufferCapacity bounds the number of messages held while the broker is
// unreachable. At one reading per second this covers several minutes of
// outage before the oldest telemetry drops.
const bufferCapacity = 512

// RealPublisher publishes to an actual MQTT broker. Messages that cannot be
// delivered while disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	logger zerolog.Logger

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string, logger zerolog.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		logger: logger,
		buffer: newRingBuffer(bufferCapacity, logger),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("cure-chamber").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect replays buffered messages after a (re)connect.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs := p.buffer.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	p.logger.Info().Int("count", len(msgs)).Msg("replaying buffered mqtt messages")
	for _, msg := range msgs {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.logger.Warn().Str("topic", msg.topic).Msg("replay timeout, message dropped")
		}
	}
}

// send publishes one message, or buffers it when disconnected.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.buffer.len()
		p.mu.Unlock()
		p.logger.Debug().Str("topic", topic).Int("buffered", n).Msg("broker offline, message buffered")
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a cycle event to the MQTT broker.
func (p *RealPublisher) Publish(event cycle.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1 (at-least-once): cycle transitions are rare and worth keeping.
	return p.send(Topic, 1, false, payload)
}

// PublishReading sends a periodic temperature reading to the MQTT broker.
func (p *RealPublisher) PublishReading(reading Reading) error {
	payload, err := FormatReadingPayload(reading)
	if err != nil {
		return fmt.Errorf("format reading payload: %w", err)
	}

	// QoS 0 (at-most-once): the next tick supersedes a lost reading.
	return p.send(TopicReadings, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	return p.send(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
