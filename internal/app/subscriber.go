package app

import (
	"fmt"
	"log/slog"

	"picmon/internal/config"
	"picmon/internal/transport"
	"picmon/internal/transport/amqp"
	"picmon/internal/transport/mqtt"
	"picmon/internal/transport/stomp"
)

// newSubscriber builds the live-feed adapter selected by TRANSPORT. The
// STOMP adapter talks to the backend origin unless BROKER_URL overrides it.
func newSubscriber(cfg config.Config, backendBase string, logger *slog.Logger) (transport.Subscriber, error) {
	switch cfg.Transport {
	case config.TransportSTOMP, "":
		base := cfg.BrokerURL
		if base == "" {
			base = backendBase
		}
		return stomp.NewSubscriber(stomp.Config{
			BaseURL:        base,
			Endpoint:       cfg.StompEndpoint,
			Topic:          cfg.StompTopic,
			Heartbeat:      cfg.Heartbeat,
			ReconnectDelay: cfg.ReconnectDelay,
		}, logger), nil
	case config.TransportMQTT:
		return mqtt.NewSubscriber(mqtt.Config{
			Broker:         cfg.MQTTBroker,
			Port:           cfg.MQTTPort,
			Topic:          cfg.MQTTTopic,
			ClientID:       cfg.MQTTClientID,
			Username:       cfg.MQTTUsername,
			Password:       cfg.MQTTPassword,
			Heartbeat:      cfg.Heartbeat,
			ReconnectDelay: cfg.ReconnectDelay,
		}, logger), nil
	case config.TransportAMQP:
		url := cfg.AMQPURL
		if cfg.BrokerURL != "" {
			url = cfg.BrokerURL
		}
		return amqp.NewSubscriber(amqp.Config{
			URL:            url,
			Exchange:       cfg.AMQPExchange,
			RoutingKey:     cfg.AMQPRoutingKey,
			Heartbeat:      cfg.Heartbeat,
			ReconnectDelay: cfg.ReconnectDelay,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
