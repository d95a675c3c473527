package main

import (
	// stdlib
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	// internal
	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/detect"
	"github.com/Robogera/crowd/pkg/render"
	"github.com/Robogera/crowd/pkg/sink"
	"github.com/Robogera/crowd/pkg/stream"
	"github.com/Robogera/crowd/pkg/stream/capture"
	"github.com/Robogera/crowd/pkg/synapse"
	"github.com/Robogera/crowd/pkg/tracker"

	// external
	"gocv.io/x/gocv"
)

// how long the loop yields when the buffer is momentarily empty
const read_backoff = 2 * time.Millisecond

func openDecoder(cfg *config.ConfigFile) (stream.Decoder[gocv.Mat], error) {
	if cfg.Input.Type == config.InputImages.Value {
		decoder, err := capture.OpenImages(cfg.Input.Path, cfg.Input.FPS)
		if err != nil {
			return nil, err
		}
		return decoder, nil
	}
	decoder, err := capture.Open(cfg.Input.Type, cfg.Input.Path, cfg.Input.Device)
	if err != nil {
		return nil, err
	}
	return decoder, nil
}

func openSink(cfg *config.ConfigFile, meta stream.Metadata) (sink.Sink, error) {
	switch cfg.Output.Format {
	case config.OutputVideo.Value:
		video, err := sink.NewVideoSink(cfg.Output.Path, cfg.Output.Codec, meta.FPS, meta.Width, meta.Height)
		if err != nil {
			return nil, err
		}
		return video, nil
	case config.OutputAVI.Value:
		avi, err := sink.NewAVISink(cfg.Output.Path, meta.FPS, meta.Width, meta.Height, cfg.Output.JPEGQuality)
		if err != nil {
			return nil, err
		}
		return avi, nil
	}
	// "none", frames are only previewed or published
	return sink.Multi{}, nil
}

func trackerConfig(cfg *config.ConfigFile, fps float64) tracker.Config {
	return tracker.Config{
		ActivationThreshold:  cfg.Tracker.ActivationThreshold,
		LowThreshold:         cfg.Tracker.LowThreshold,
		MatchingThreshold:    cfg.Tracker.MatchingThreshold,
		LostTrackBuffer:      cfg.Tracker.LostTrackBuffer,
		FrameRate:            fps,
		MinConsecutiveFrames: cfg.Tracker.MinConsecutiveFrames,
		ReportLost:           cfg.Tracker.ReportLost,
		Solver:               cfg.Tracker.Solver,
	}
}

func processor(
	ctx context.Context,
	parent_logger *slog.Logger,
	cfg *config.ConfigFile,
	run_id string,
	preview_chan chan<- []byte,
	publish_chan chan<- *synapse.Command,
) (err error) {

	logger := parent_logger.With("coroutine", "processor")

	decoder, err := openDecoder(cfg)
	if err != nil {
		logger.Error("Can't open input", "type", cfg.Input.Type, "address", cfg.Input.Path, "error", err)
		return fmt.Errorf("%w: %w", ERR_BAD_INPUT, err)
	}
	source, err := stream.Open(decoder, stream.Options[gocv.Mat]{
		Capacity:    cfg.Input.Buffer,
		StopTimeout: time.Duration(cfg.Input.StopTimeoutMs) * time.Millisecond,
		Release:     capture.Release,
	}, parent_logger)
	if err != nil {
		logger.Error("Input rejected", "address", cfg.Input.Path, "error", err)
		return fmt.Errorf("%w: %w", ERR_BAD_INPUT, err)
	}
	defer func() {
		if stop_err := source.Stop(); stop_err != nil {
			logger.Warn("Input not closed cleanly", "error", stop_err)
		}
	}()

	meta := source.Metadata()
	logger.Info("Input opened",
		"address", cfg.Input.Path,
		"size", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"fps", meta.FPS,
		"frames", meta.FrameCount)

	detector, err := detect.New(cfg, parent_logger)
	if err != nil {
		logger.Error("Can't load detector", "model", cfg.Model.Path, "error", err)
		return err
	}
	defer detector.Close()

	tracker_cfg := trackerConfig(cfg, meta.FPS)
	tr, err := tracker.NewTracker(tracker_cfg, parent_logger)
	if err != nil {
		logger.Error("Bad tracker configuration", "error", err)
		return err
	}

	output, err := openSink(cfg, meta)
	if err != nil {
		logger.Error("Can't open output", "path", cfg.Output.Path, "error", err)
		return fmt.Errorf("%w: %w", ERR_BAD_OUTPUT, err)
	}
	defer func() {
		if close_err := output.Close(); close_err != nil {
			logger.Error("Can't finalize output", "path", cfg.Output.Path, "error", close_err)
			err = errors.Join(err, close_err)
		}
	}()

	renderer := render.NewRenderer(cfg.Render, cfg.Model.Classes)
	var trails *render.Trails
	if cfg.Render.TrailPoints > 0 {
		trails = render.NewTrails(cfg.Render.TrailPoints, uint64(tracker_cfg.MaxLost()))
	}

	stats := newStatistics(meta.FrameCount)
	ticker := time.NewTicker(time.Second * time.Duration(max(cfg.Logging.StatPeriodSec, 1)))
	defer ticker.Stop()

	source.Start(ctx)
	logger.Info("Video loop started")

	for source.HasMore() {
		select {
		case <-ctx.Done():
			logger.Info("Processor cancelled by context")
			return context.Canceled
		case <-ticker.C:
			stats.Log(logger, tr.Stats(), source.Len())
		default:
		}

		frame, ok := source.Read()
		if !ok {
			select {
			case <-ctx.Done():
			case <-time.After(read_backoff):
			}
			continue
		}

		if err := func() error {
			img := frame.Value()
			defer img.Close()
			started := time.Now()

			dets, err := detector.Detect(img)
			if err != nil {
				// the frame still goes out, only tracking skips it
				stats.detection_errors++
				logger.Warn("Detection failed, frame skipped", "frame", frame.Id(), "error", err)
				if err := output.Write(img); err != nil {
					return err
				}
				stats.Frame(time.Since(started))
				return nil
			}

			tracked := tr.Update(dets)

			if trails != nil {
				trails.Update(tracked)
			}
			annotated := renderer.Draw(img, tracked, trails)
			defer annotated.Close()

			if err := output.Write(annotated); err != nil {
				return err
			}

			preview(logger, cfg, annotated, preview_chan)
			if publish_chan != nil {
				select {
				case publish_chan <- synapse.NewTracksCommand(run_id, frame.Id(), frame.Time(), tracked):
				default:
					logger.Warn("Publish channel full. Dropping the message...", "capacity", cap(publish_chan))
				}
			}

			stats.Frame(time.Since(started))
			return nil
		}(); err != nil {
			logger.Error("Can't write output. Shutting down...", "path", cfg.Output.Path, "error", err)
			return err
		}
	}

	if ctx.Err() != nil {
		logger.Info("Processor cancelled by context")
		return context.Canceled
	}
	if err := source.Err(); err != nil {
		logger.Error("Input failed", "error", err)
		return fmt.Errorf("%w: %w", ERR_BAD_INPUT, err)
	}
	stats.Log(logger, tr.Stats(), source.Len())
	logger.Info("Video loop finished", "frames", stats.frames)
	return ERR_STREAM_ENDED
}

// JPEG copy of the frame for the web preview, dropped if nobody keeps up
func preview(logger *slog.Logger, cfg *config.ConfigFile, img gocv.Mat, preview_chan chan<- []byte) {
	if preview_chan == nil {
		return
	}
	small := img
	if cfg.Webserver.W != 0 && cfg.Webserver.H != 0 {
		small = gocv.NewMat()
		defer small.Close()
		gocv.Resize(img, &small, image.Pt(int(cfg.Webserver.W), int(cfg.Webserver.H)), 0, 0, gocv.InterpolationLinear)
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, small)
	if err != nil {
		logger.Warn("Can't encode preview frame", "error", err)
		return
	}
	defer buf.Close()
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	select {
	case preview_chan <- data:
	default:
		logger.Debug("Preview channel full. Dropping the frame...", "capacity", cap(preview_chan))
	}
}
