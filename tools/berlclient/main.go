// Package main implements berlclient — the interactive/demo companion for
// the BERL WebSocket server. It connects, exchanges the canonical demo
// messages, and can drop into an interactive prompt for manual experiments.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/berlproject/berl-client-go/berl"
)

func main() {
	var (
		flagHost   string
		flagPort   int
		flagMode   string
		flagConfig string
	)

	root := &cobra.Command{
		Use:   "berlclient",
		Short: "BERL WebSocket demo client",
		Long: "berlclient connects to a BERL WebSocket server and exchanges JSON messages.\n" +
			"Modes: demo (send canonical messages, then interact), test (send and verify\n" +
			"responses), interactive (manual message entry).",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				config.Host = flagHost
			}
			if cmd.Flags().Changed("port") {
				config.Port = flagPort
			}
			if cmd.Flags().Changed("mode") {
				config.Mode = flagMode
			}
			if err := config.validate(); err != nil {
				return err
			}
			return run(config)
		},
	}

	defaults := defaultConfig()
	root.Flags().StringVar(&flagHost, "host", defaults.Host, "server host")
	root.Flags().IntVar(&flagPort, "port", defaults.Port, "server port")
	root.Flags().StringVar(&flagMode, "mode", defaults.Mode, "client mode: demo, test, or interactive")
	root.Flags().StringVar(&flagConfig, "config", "", "optional TOML config file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(config Config) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	observer := berl.NewLogObserver(logger)
	client := berl.NewClient("berlclient").
		SetObserver(observer).
		SetMessageHandler(func(message *berl.Message) {
			logger.Info().Str("payload", message.String()).Msg("server message")
		}).
		SetDisconnectHandler(func(_ *berl.Client, err error) {
			logger.Warn().Err(err).Msg("connection closed by server")
		})

	logger.Info().Str("url", config.URL()).Msg("connecting")
	if err := client.Connect(config.URL()); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = client.Disconnect() }()

	switch config.Mode {
	case "demo":
		if err := sendDemoMessages(client, logger, config); err != nil {
			return err
		}
		time.Sleep(2 * time.Second)
		return interactiveLoop(client, logger)
	case "test":
		return runExchangeCheck(client, observer, logger, config)
	case "interactive":
		return interactiveLoop(client, logger)
	}
	return nil
}

func sendDemoMessages(client *berl.Client, logger zerolog.Logger, config Config) error {
	messages := berl.DemoMessages()
	spacing := time.Duration(config.SpacingMillis) * time.Millisecond
	for i, message := range messages {
		logger.Info().Int("n", i+1).Int("total", len(messages)).Msg("sending demo message")
		if err := client.Send(message); err != nil {
			return fmt.Errorf("send demo message %d: %w", i+1, err)
		}
		time.Sleep(spacing)
	}
	return nil
}

// runExchangeCheck sends the demo set and verifies the server answers each
// message within the shared deadline.
func runExchangeCheck(client *berl.Client, observer berl.Observer, logger zerolog.Logger, config Config) error {
	messages := berl.DemoMessages()
	deadline := time.Duration(config.ResponseWaitMS) * time.Millisecond
	collector := client.ExpectCount(len(messages), deadline)

	for i, message := range messages {
		if err := client.Send(message); err != nil {
			return fmt.Errorf("send test message %d: %w", i+1, err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	responses, err := collector.Await()
	if err != nil {
		return fmt.Errorf("collect responses: %w", err)
	}

	warnSchemaDeviations(responses, observer)
	for _, response := range responses {
		logger.Info().Str("payload", response.String()).Msg("response")
	}

	if len(responses) < len(messages) {
		return fmt.Errorf("message exchange incomplete: %d/%d responses", len(responses), len(messages))
	}
	logger.Info().Int("responses", len(responses)).Msg("message exchange complete")
	return nil
}

// warnSchemaDeviations flags responses that are valid but off-schema: a pong
// is expected to echo the request timestamp. Deviations go through the
// injected observer, not a process-wide logger.
func warnSchemaDeviations(responses []*berl.Message, observer berl.Observer) {
	for _, response := range responses {
		responseType, _ := response.Type()
		if responseType != "pong" {
			continue
		}
		if _, hasTimestamp := response.Timestamp(); !hasTimestamp {
			observer.Warning("pong without timestamp", response)
		}
	}
}

func interactiveLoop(client *berl.Client, logger zerolog.Logger) error {
	fmt.Println("Interactive mode. Type messages (JSON format) or 'quit' to exit:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Enter message: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			return nil
		}
		if !client.Connected() {
			return fmt.Errorf("connection lost")
		}
		if err := client.Send(berl.ParseInput(line)); err != nil {
			logger.Error().Err(err).Msg("send failed")
		}
	}
}
