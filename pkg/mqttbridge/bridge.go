// Package mqttbridge mirrors the console onto an MQTT broker: telemetry
// snapshots are published and discrete motion commands are accepted from a
// command topic.
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/control"
)

// Defaults.
const (
	DefaultPrefix   = "vega"
	DefaultClientID = "vega-console"

	connectTimeout = 10 * time.Second
	retryInterval  = 5 * time.Second
)

// Commander accepts discrete motion commands.
type Commander interface {
	Command(ctx context.Context, cmd control.Command) error
}

// Config configures a Bridge.
type Config struct {
	// Broker URL, e.g. tcp://localhost:1883.
	Broker   string
	ClientID string
	Prefix   string
	QoS      byte
	Logger   *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.Logger == nil {
		c.Logger = log.L()
	}
}

// Bridge publishes telemetry and relays commands.
type Bridge struct {
	client mqtt.Client
	cfg    Config
	cmd    Commander
	logger *slog.Logger

	// set when OnConnect owns the subscription
	autoSubscribe bool
}

// New creates a bridge over an existing client.
func New(client mqtt.Client, cmd Commander, cfg Config) *Bridge {
	cfg.applyDefaults()
	return &Bridge{
		client: client,
		cfg:    cfg,
		cmd:    cmd,
		logger: cfg.Logger.With("component", "mqtt"),
	}
}

// Dial creates a bridge with a paho client for cfg.Broker. The client
// reconnects on its own and resubscribes on every (re)connect.
func Dial(cmd Commander, cfg Config) *Bridge {
	cfg.applyDefaults()
	b := &Bridge{cfg: cfg, cmd: cmd, logger: cfg.Logger.With("component", "mqtt"), autoSubscribe: true}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(retryInterval)
	opts.SetCleanSession(true)
	opts.OnConnect = func(c mqtt.Client) {
		b.logger.Info("connected to broker", "broker", cfg.Broker)
		if err := b.subscribe(); err != nil {
			b.logger.Error("subscribe failed", "err", err)
		}
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		b.logger.Warn("connection lost", "err", err)
	}

	b.client = mqtt.NewClient(opts)
	return b
}

// TelemetryTopic is where snapshots are published.
func (b *Bridge) TelemetryTopic() string { return b.cfg.Prefix + "/telemetry" }

// MoveTopic is where commands are read from.
func (b *Bridge) MoveTopic() string { return b.cfg.Prefix + "/move" }

// Start connects to the broker. With connect retry enabled the connection
// keeps being attempted in the background even if this returns an error.
func (b *Bridge) Start(ctx context.Context) error {
	tok := b.client.Connect()
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(connectTimeout):
		return fmt.Errorf("mqtt: connect to %s timed out", b.cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt: connect to %s: %w", b.cfg.Broker, err)
	}
	if b.autoSubscribe {
		return nil
	}
	return b.subscribe()
}

func (b *Bridge) subscribe() error {
	tok := b.client.Subscribe(b.MoveTopic(), b.cfg.QoS, b.handleMove)
	if !tok.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt: subscribe %s timed out", b.MoveTopic())
	}
	if err := tok.Error(); err != nil {
		return err
	}
	b.logger.Info("subscribed", "topic", b.MoveTopic())
	return nil
}

// Close disconnects, allowing 250ms for pending work.
func (b *Bridge) Close() {
	b.client.Disconnect(250)
}

// ShowTelemetry publishes a snapshot. Publishing never blocks the poller.
func (b *Bridge) ShowTelemetry(t control.Telemetry) {
	if !b.client.IsConnected() {
		return
	}
	payload, err := json.Marshal(t)
	if err != nil {
		b.logger.Error("telemetry encode failed", "err", err)
		return
	}
	tok := b.client.Publish(b.TelemetryTopic(), b.cfg.QoS, false, payload)
	go func() {
		<-tok.Done()
		if err := tok.Error(); err != nil {
			b.logger.Warn("telemetry publish failed", "err", err)
		}
	}()
}

// handleMove dispatches a command named by the message payload.
func (b *Bridge) handleMove(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := control.ParseCommand(string(msg.Payload()))
	if err != nil {
		b.logger.Warn("ignoring move", "topic", msg.Topic(), "err", err)
		return
	}
	if err := b.cmd.Command(context.Background(), cmd); err != nil {
		b.logger.Warn("move rejected", "command", string(cmd), "err", err)
		return
	}
	b.logger.Debug("move from mqtt", "command", string(cmd))
}
