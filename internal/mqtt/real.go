package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/gps-timer/internal/logic"
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string

	// BufferSize is how many messages are kept while disconnected.
	BufferSize int

	// RetryInterval is the wait between connection attempts.
	RetryInterval time.Duration
}

// DefaultBufferSize holds roughly a day of window transitions and heartbeats.
const DefaultBufferSize = 256

// RealPublisher publishes to an actual MQTT broker. Publishing never waits
// for the broker: while the connection is down messages are kept in a ring
// buffer and replayed in order on reconnect.
type RealPublisher struct {
	client paho.Client

	// mu orders buffering against replay. online is only set once the
	// buffer has been replayed, so newer messages never overtake older ones.
	mu     sync.Mutex
	buf    *ringBuffer
	online bool
}

// NewRealPublisher starts connecting to the broker in the background and
// returns immediately.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("no broker configured")
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 5 * time.Second
	}

	p := newRealPublisher(o.BufferSize)

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: SystemOffline})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(o.RetryInterval).
		SetMaxReconnectInterval(time.Minute).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			slog.Error("mqtt: connect failed", "broker", o.Broker, "error", err)
		}
	}()

	return p, nil
}

func newRealPublisher(bufferSize int) *RealPublisher {
	return &RealPublisher{buf: newRingBuffer(bufferSize)}
}

func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.buf.drainAll()
	slog.Info("mqtt: connected", "replaying", len(pending))
	for _, m := range pending {
		p.send(m)
	}
	p.online = true
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.online = false
	p.mu.Unlock()
	slog.Warn("mqtt: connection lost", "error", err)
}

// Publish sends a timer event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	p.enqueue(bufferedMsg{topic: Topic, payload: payload})
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once): lifecycle events matter more than transitions
	p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

func (p *RealPublisher) enqueue(m bufferedMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.online || !p.client.IsConnectionOpen() {
		p.buf.push(m)
		return
	}
	p.send(m)
}

func (p *RealPublisher) send(m bufferedMsg) {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			slog.Warn("mqtt: publish timeout", "topic", m.topic)
			return
		}
		if err := token.Error(); err != nil {
			slog.Warn("mqtt: publish failed", "topic", m.topic, "error", err)
		}
	}()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns how many messages are waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second to flush
	return nil
}
