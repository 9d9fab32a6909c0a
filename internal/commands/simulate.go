package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"picmon/internal/config"
	"picmon/internal/simulator"
	"picmon/internal/transport/amqp"
	"picmon/internal/transport/mqtt"
)

func (a *App) installSimulate() error {
	var (
		count int
		seed  uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Publish simulated PIC readings on the live feed",
		Long: `Publish one simulated reading per configured station every SIMULATOR_INTERVAL.
Uses the MQTT broker or AMQP exchange selected by TRANSPORT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := newPublisher(a.cfg, a.logger)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			gen := simulator.NewGenerator(a.cfg.Stations, seed)
			err = simulator.Run(cmd.Context(), pub, gen, simulator.Options{
				Interval: a.cfg.SimulatorInterval,
				Count:    count,
			}, a.logger)
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&count, "count", "n", 0, "stop after this many rounds (0 runs until interrupted)")
	flags.Uint64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	flags.Duration("interval", 0, "time between rounds")
	if err := a.bindFlags(flags, map[string]string{
		"simulator_interval": "interval",
	}); err != nil {
		return err
	}
	a.cmd.AddCommand(cmd)
	return nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (simulator.Publisher, error) {
	switch cfg.Transport {
	case config.TransportMQTT:
		return mqtt.NewPublisher(mqtt.Config{
			Broker:         cfg.MQTTBroker,
			Port:           cfg.MQTTPort,
			Topic:          cfg.MQTTTopic,
			Username:       cfg.MQTTUsername,
			Password:       cfg.MQTTPassword,
			ReconnectDelay: cfg.ReconnectDelay,
		}, logger), nil
	case config.TransportAMQP:
		url := cfg.AMQPURL
		if cfg.BrokerURL != "" {
			url = cfg.BrokerURL
		}
		return amqp.NewPublisher(amqp.Config{
			URL:            url,
			Exchange:       cfg.AMQPExchange,
			RoutingKey:     cfg.AMQPRoutingKey,
			Heartbeat:      cfg.Heartbeat,
			ReconnectDelay: cfg.ReconnectDelay,
		}, logger), nil
	default:
		return nil, fmt.Errorf("simulate publishes over mqtt or amqp, not %q", cfg.Transport)
	}
}
