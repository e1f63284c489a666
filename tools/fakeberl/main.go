// Package main implements fakeberl — a deterministic BERL-protocol WebSocket
// responder for integration testing of BERL clients without a real server.
// It answers ping, echo, status, greeting, json_test, and text messages the
// way the production server does, and reports malformed JSON as a structured
// error message instead of dropping the frame.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	flagAddr    = flag.String("addr", "127.0.0.1:19765", "listen address")
	flagPath    = flag.String("path", "/", "websocket endpoint path")
	flagLogConn = flag.Bool("log-conn", true, "log connect/disconnect events")
	flagLatency = flag.Duration("latency", 0, "artificial per-message latency")
)

func main() {
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	server := &http.Server{
		Addr:    *flagAddr,
		Handler: newHandler(logger, *flagPath, *flagLogConn, *flagLatency),
	}

	go func() {
		logger.Info().Str("addr", *flagAddr).Msg("fakeberl listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
	logger.Info().Msg("fakeberl stopped")
}

func newHandler(logger zerolog.Logger, path string, logConn bool, latency time.Duration) http.Handler {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(writer http.ResponseWriter, request *http.Request) {
		conn, err := upgrader.Upgrade(writer, request, nil)
		if err != nil {
			logger.Error().Err(err).Msg("upgrade failed")
			return
		}
		defer func() { _ = conn.Close() }()

		remote := conn.RemoteAddr().String()
		if logConn {
			logger.Info().Str("remote", remote).Msg("client connected")
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if logConn {
					logger.Info().Str("remote", remote).Err(err).Msg("client disconnected")
				}
				return
			}
			if latency > 0 {
				time.Sleep(latency)
			}
			reply, hasReply := respond(string(payload))
			if !hasReply {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				logger.Error().Str("remote", remote).Err(err).Msg("write failed")
				return
			}
		}
	})
	return mux
}
