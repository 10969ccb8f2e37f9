// Package mqtt bridges the in-process bus to an MQTT broker: inbound broker
// messages become cmd.* events, internal sms.* events become broker
// publications.
package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/danielfett/miqro-rutos-sms/internal/bus"
	"github.com/danielfett/miqro-rutos-sms/internal/config"
	"github.com/danielfett/miqro-rutos-sms/internal/status"
	"go.uber.org/zap"
)

const (
	connectTimeout = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Adapter owns the broker connection. Subscriptions are re-established by
// the OnConnect handler, so they survive paho's auto-reconnect.
type Adapter struct {
	client  paho.Client
	bus     *bus.Bus
	prefix  string
	machine *status.Machine
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// NewAdapter creates an adapter for the given broker. machine may be nil.
func NewAdapter(cfg config.MQTT, prefix string, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *Adapter {
	a := &Adapter{
		bus:     b,
		prefix:  prefix,
		machine: machine,
		logger:  logger,
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "rutos-sms-" + uuid.NewString()[:8]
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(a.onConnect).
		SetConnectionLostHandler(a.onConnectionLost)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	a.client = paho.NewClient(opts)
	return a
}

// Connect establishes the broker connection. Blocks until connected or
// timed out; once connected, paho reconnects on its own.
func (a *Adapter) Connect() error {
	token := a.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("broker connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("broker connect: %w", err)
	}
	return nil
}

// Start begins forwarding internal sms.* events to the broker.
func (a *Adapter) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	ch, unsub := a.bus.Subscribe("sms.", 64)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				a.forward(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close stops forwarding and disconnects from the broker.
func (a *Adapter) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.client.Disconnect(250)
}

func (a *Adapter) onConnect(c paho.Client) {
	a.logger.Info("connected to broker")
	for _, filter := range commandFilters(a.prefix) {
		token := c.Subscribe(filter, 0, a.handleInbound)
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			a.logger.Error("subscribe failed", zap.Error(token.Error()), zap.String("filter", filter))
		}
	}
	if a.machine != nil && a.machine.Current() == status.Connecting {
		_ = a.machine.Transition(status.Ready)
	}
}

func (a *Adapter) onConnectionLost(_ paho.Client, err error) {
	a.logger.Warn("broker connection lost", zap.Error(err))
	if a.machine != nil {
		current := a.machine.Current()
		if current == status.Ready || current == status.Degraded {
			_ = a.machine.Transition(status.Connecting)
		}
	}
}

func (a *Adapter) handleInbound(_ paho.Client, msg paho.Message) {
	evt, ok := commandEvent(a.prefix, msg.Topic(), msg.Payload())
	if !ok {
		a.logger.Warn("unrecognized command topic", zap.String("topic", msg.Topic()))
		return
	}
	a.bus.Publish(evt)
}

func (a *Adapter) forward(evt bus.Event) {
	topic, payload, ok := publication(a.prefix, evt)
	if !ok {
		return
	}
	token := a.client.Publish(topic, 0, false, payload)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		a.logger.Error("broker publish failed", zap.Error(token.Error()), zap.String("topic", topic))
	}
}
