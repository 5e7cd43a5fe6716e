package mqtt

import (
	"context"
	"fmt"
	"log/slog"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/isar-water-etl/internal/domain"
)

// Broker opens publisher connections to an MQTT broker.
type Broker struct {
	opts   Options
	logger *slog.Logger
	dial   func(Options) (conn, error)
}

// NewBroker creates a Broker for opts.
func NewBroker(opts Options, logger *slog.Logger) *Broker {
	return &Broker{opts: opts, logger: logger, dial: dial}
}

// Connect opens a long-lived connection. The caller must Close it.
func (b *Broker) Connect() (*Publisher, error) {
	c, err := b.dial(b.opts)
	if err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", b.opts.BrokerURL, err)
	}
	b.logger.Info("connected to mqtt", "broker", b.opts.BrokerURL, "client_id", b.opts.ClientID)
	return &Publisher{
		conn:    c,
		prefix:  b.opts.TopicPrefix,
		timeout: b.opts.ConnectTimeout,
		logger:  b.logger,
	}, nil
}

// WithPublisher connects, runs fn and disconnects, also when fn fails.
func (b *Broker) WithPublisher(fn func(*Publisher) error) error {
	p, err := b.Connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = p.Close()
		b.logger.Info("disconnected from mqtt", "broker", b.opts.BrokerURL)
	}()
	return fn(p)
}

// Publish opens a connection for this reading only. It lets single-shot
// invocations use the broker as a pipeline.Publisher.
func (b *Broker) Publish(ctx context.Context, reading domain.CompositeReading) error {
	return b.WithPublisher(func(p *Publisher) error {
		return p.Publish(ctx, reading)
	})
}

func dial(opts Options) (conn, error) {
	co := paho.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetConnectTimeout(opts.ConnectTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}

	client := paho.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("timed out after %s", opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return client, nil
}
