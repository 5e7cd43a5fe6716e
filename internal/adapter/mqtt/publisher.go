package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/isar-water-etl/internal/config"
	"github.com/couchcryptid/isar-water-etl/internal/domain"
)

const (
	qosAtLeastOnce = 1
	allTopic       = "all"

	// disconnectQuiesce is how long Disconnect waits for in-flight work, in ms.
	disconnectQuiesce = 250
)

// Options configures the broker connection.
type Options struct {
	BrokerURL      string // tcp://host:port
	ClientID       string
	Username       string // empty connects anonymously
	Password       string
	TopicPrefix    string
	ConnectTimeout time.Duration // bounds the connect and each publish acknowledgement
}

// OptionsFromConfig maps service configuration onto broker options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BrokerURL:      cfg.MQTTBrokerURL(),
		ClientID:       cfg.MQTTClientID,
		Username:       cfg.MQTTUser,
		Password:       cfg.MQTTPass,
		TopicPrefix:    cfg.MQTTTopicPrefix,
		ConnectTimeout: cfg.MQTTConnectTimeout,
	}
}

// conn is the part of paho.Client the publisher needs.
type conn interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher publishes composite readings over one broker connection.
// It implements pipeline.Publisher.
type Publisher struct {
	conn    conn
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// Publish sends each present field to <prefix>/<field> and the full reading
// as JSON to <prefix>/all, all with QoS 1 and no retain flag. Every topic is
// attempted; failures are joined.
func (p *Publisher) Publish(ctx context.Context, reading domain.CompositeReading) error {
	var errs []error
	for _, f := range reading.Fields() {
		if err := p.send(ctx, p.topic(f.Name), domain.FormatValue(f.Value)); err != nil {
			errs = append(errs, err)
		}
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("serialize composite reading: %w", err)
	}
	if err := p.send(ctx, p.topic(allTopic), payload); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	p.logger.Debug("mqtt reading published", "time", reading.Time, "prefix", p.prefix)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.conn.Disconnect(disconnectQuiesce)
	return nil
}

func (p *Publisher) topic(field string) string {
	return p.prefix + "/" + field
}

func (p *Publisher) send(ctx context.Context, topic string, payload interface{}) error {
	token := p.conn.Publish(topic, qosAtLeastOnce, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("publish %s: timed out after %s", topic, p.timeout)
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
