package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MQTTOptions configures the MQTT source.
type MQTTOptions struct {
	// Broker is host:port of the broker.
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	// MaxAge drops states older than this; zero keeps them forever.
	MaxAge time.Duration
}

// MQTT keeps the latest state published on a topic.
type MQTT struct {
	opts   MQTTOptions
	client mqtt.Client
	log    zerolog.Logger

	mu       sync.RWMutex
	latest   State
	received time.Time
	now      func() time.Time
}

func NewMQTT(opts MQTTOptions, log zerolog.Logger) *MQTT {
	return &MQTT{
		opts: opts,
		log:  log.With().Str("component", "mqtt").Str("topic", opts.Topic).Logger(),
		now:  time.Now,
	}
}

// Connect connects to the broker and subscribes to the state topic. The
// client reconnects on its own afterwards and resubscribes on reconnect.
func (m *MQTT) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", m.opts.Broker))
	opts.SetClientID(m.opts.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		m.log.Info().Str("broker", m.opts.Broker).Msg("mqtt connection established")
		token := c.Subscribe(m.opts.Topic, m.opts.QoS, m.handle)
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			m.log.Error().Err(token.Error()).Msg("mqtt subscribe failed")
		}
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		m.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
	}

	m.client = mqtt.NewClient(opts)

	token := m.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errors.New("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return errors.Wrap(err, "mqtt connection failed")
	}
	return nil
}

// Close disconnects from the broker and stops any pending connect retry.
func (m *MQTT) Close() {
	if m.client != nil {
		m.client.Disconnect(250)
	}
}

func (m *MQTT) handle(_ mqtt.Client, msg mqtt.Message) {
	if err := m.update(msg.Payload()); err != nil {
		m.log.Error().Err(err).Msg("dropping state message")
	}
}

func (m *MQTT) update(payload []byte) error {
	s, err := Decode(payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.latest = s
	m.received = m.now()
	m.mu.Unlock()
	return nil
}

// Fetch returns the latest state. Before the first message, or once the
// latest one is older than MaxAge, it returns an empty state.
func (m *MQTT) Fetch(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.received.IsZero() {
		return State{}, nil
	}
	if m.opts.MaxAge > 0 && m.now().Sub(m.received) > m.opts.MaxAge {
		return State{}, nil
	}
	return m.latest, nil
}
