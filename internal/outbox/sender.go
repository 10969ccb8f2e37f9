// Package outbox executes outbound device operations requested over the bus
// and publishes their confirmations.
package outbox

import (
	"context"
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/bus"
	"github.com/danielfett/miqro-rutos-sms/internal/metrics"
	"go.uber.org/zap"
)

// DeviceGateway is the slice of the device client the sender needs.
type DeviceGateway interface {
	Send(ctx context.Context, number, text string) (string, error)
	SendGroup(ctx context.Context, group, text string) (string, error)
	Delete(ctx context.Context, index string) (string, error)
}

// SendCommand asks for an SMS send. To is a phone number for cmd.send_single
// and a device-configured group name for cmd.send_group.
type SendCommand struct {
	To   string
	Text string
}

// SendResult carries the device's raw confirmation text for a send.
type SendResult struct {
	To       string
	Response string
}

// Sender subscribes to cmd.* events and performs the requested device calls.
// Operations run sequentially in one goroutine, independent of the poll
// cycle; they share nothing with it but the device client.
type Sender struct {
	device DeviceGateway
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewSender creates a sender.
func NewSender(device DeviceGateway, b *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		device: device,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to command events on the bus.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	ch, unsub := s.bus.Subscribe("cmd.", 64)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				s.handle(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the sender.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) handle(ctx context.Context, evt bus.Event) {
	switch evt.Kind {
	case "cmd.send_single":
		cmd, ok := evt.Payload.(SendCommand)
		if !ok {
			return
		}
		s.sendSingle(ctx, cmd)
	case "cmd.send_group":
		cmd, ok := evt.Payload.(SendCommand)
		if !ok {
			return
		}
		s.sendGroup(ctx, cmd)
	case "cmd.delete":
		index, ok := evt.Payload.(string)
		if !ok {
			return
		}
		metrics.DeletesTotal.WithLabelValues("manual").Inc()
		s.DeleteMessage(ctx, index)
	}
}

func (s *Sender) sendSingle(ctx context.Context, cmd SendCommand) {
	s.logger.Info("sending SMS", zap.String("number", cmd.To))

	resp, err := s.device.Send(ctx, cmd.To, cmd.Text)
	if err != nil {
		// No confirmation event on transport failure; the bus just stays
		// silent and the requester sees the absence.
		s.logger.Error("send failed", zap.Error(err), zap.String("number", cmd.To))
		metrics.SendsTotal.WithLabelValues("single", "error").Inc()
		return
	}
	metrics.SendsTotal.WithLabelValues("single", "ok").Inc()

	s.logger.Info("device response", zap.String("response", resp))
	s.bus.Publish(bus.Event{
		Kind:      "sms.sent_single",
		Timestamp: time.Now(),
		Payload:   SendResult{To: cmd.To, Response: resp},
	})
}

func (s *Sender) sendGroup(ctx context.Context, cmd SendCommand) {
	s.logger.Info("sending SMS to group", zap.String("group", cmd.To))

	resp, err := s.device.SendGroup(ctx, cmd.To, cmd.Text)
	if err != nil {
		s.logger.Error("group send failed", zap.Error(err), zap.String("group", cmd.To))
		metrics.SendsTotal.WithLabelValues("group", "error").Inc()
		return
	}
	metrics.SendsTotal.WithLabelValues("group", "ok").Inc()

	s.logger.Info("device response", zap.String("response", resp))
	s.bus.Publish(bus.Event{
		Kind:      "sms.sent_group",
		Timestamp: time.Now(),
		Payload:   SendResult{To: cmd.To, Response: resp},
	})
}

// DeleteMessage deletes the message at index on the device and publishes the
// confirmation. Shared by manual deletes and the retention loop; the
// resulting sms.deleted event does not distinguish the trigger.
func (s *Sender) DeleteMessage(ctx context.Context, index string) {
	s.logger.Info("deleting message", zap.String("index", index))

	resp, err := s.device.Delete(ctx, index)
	if err != nil {
		s.logger.Error("delete failed", zap.Error(err), zap.String("index", index))
		return
	}

	s.logger.Info("device response", zap.String("response", resp))
	s.bus.Publish(bus.Event{
		Kind:      "sms.deleted",
		Timestamp: time.Now(),
		Payload:   resp,
	})
}
