package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/synapse"

	mqtt "github.com/soypat/natiu-mqtt"
)

// Publishes per-frame tracks. Failures here are logged and never
// stop the run, the processor drops messages nobody takes
func mqttclient(
	ctx context.Context,
	parent_logger *slog.Logger,
	cfg *config.ConfigFile,
	in_chan <-chan *synapse.Command,
) error {
	logger := parent_logger.With("coroutine", "mqttclient")
	client := mqtt.NewClient(
		mqtt.ClientConfig{
			Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 2048)},
			OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
				message, err := io.ReadAll(r)
				if err != nil {
					return err
				}
				logger.Debug("Recieved", "header", pubHead.String(), "message", message)
				return nil
			},
		})

	timeout := time.Second * time.Duration(max(cfg.Mqtt.TimeoutSec, 1))
	dialer := net.Dialer{Timeout: timeout}
	connection, err := dialer.DialContext(ctx, "tcp", cfg.Mqtt.Address)
	if err != nil {
		logger.Error("Can't reach broker, publishing disabled", "address", cfg.Mqtt.Address, "error", err)
		return nil
	}

	connection_ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var vars mqtt.VariablesConnect
	vars.SetDefaultMQTT([]byte(cfg.Mqtt.ClientID))
	if cfg.Mqtt.Username != "" {
		vars.Username = []byte(cfg.Mqtt.Username)
		vars.Password = []byte(cfg.Mqtt.Password)
	}
	if err := client.Connect(connection_ctx, connection, &vars); err != nil {
		logger.Error("Can't connect to broker, publishing disabled", "address", cfg.Mqtt.Address, "error", err)
		connection.Close()
		return nil
	}
	defer client.Disconnect(context.Canceled)

	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return err
	}
	publish_vars := mqtt.VariablesPublish{TopicName: []byte(cfg.Mqtt.Topic)}

	logger.Info("Connected", "address", cfg.Mqtt.Address, "topic", cfg.Mqtt.Topic)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cancelled by context")
			return context.Canceled
		case command := <-in_chan:
			payload, err := command.ToPayload()
			if err != nil {
				logger.Warn("Can't encode message", "frame", command.Id, "error", err)
				continue
			}
			if err := client.PublishPayload(flags, publish_vars, payload); err != nil {
				logger.Error("Can't publish, publishing disabled", "topic", cfg.Mqtt.Topic, "error", err)
				return nil
			}
		}
	}
}
