package main

import (
	// stdlib
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	// internal
	"github.com/Robogera/crowd/pkg/config"

	// external
	"github.com/hybridgroup/mjpeg"
)

// Serves the annotated frames as an MJPEG stream
func webplayer(
	ctx context.Context,
	parent_logger *slog.Logger,
	cfg *config.ConfigFile,
	in_chan <-chan []byte,
) error {

	logger := parent_logger.With("coroutine", "webplayer")

	output_stream := mjpeg.NewStream()

	mux := http.NewServeMux()
	mux.Handle("/", output_stream)

	server := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", cfg.Webserver.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Webserver.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Webserver.WriteTimeoutSec) * time.Second,
	}

	err_chan := make(chan error, 1)

	go func() {
		err_chan <- server.ListenAndServe()
	}()
	defer func() {
		shutdown_context, cancel := context.WithTimeout(
			context.Background(),
			time.Second*time.Duration(cfg.Webserver.ShutdownTimeoutSec))
		defer cancel()
		shutdown_initiated_timestamp := time.Now()
		err := server.Shutdown(shutdown_context)
		logger.Info(
			"Shut down",
			"shutdown time (sec)", time.Since(shutdown_initiated_timestamp).Seconds(),
			"error", err)
	}()

	logger.Info("Started", "port", cfg.Webserver.Port)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cancelled by context", "timeout (sec)", cfg.Webserver.ShutdownTimeoutSec)
			return context.Canceled
		case err := <-err_chan:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			// the preview is optional, losing it does not stop processing
			logger.Error("Error", "port", cfg.Webserver.Port, "error", err)
			return nil
		case data := <-in_chan:
			output_stream.UpdateJPEG(data)
		}
	}
}
