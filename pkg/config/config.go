package config

import (
	// stdlib
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// external
	"github.com/pelletier/go-toml/v2"
)

var (
	ERR_INVALID_CONFIG error = errors.New("Invalid config")
)

// Config file structure

type ConfigFile struct {
	Input     InputConfig
	Output    OutputConfig
	Model     ModelConfig
	Slicing   SlicingConfig
	Tracker   TrackerConfig
	Render    RenderConfig
	Webserver WebserverConfig
	Mqtt      MqttConfig
	Logging   LoggingConfig
}

type InputConfig struct {
	Type   string
	Path   string
	Device int
	// decoded frames buffered ahead of processing
	Buffer        int
	StopTimeoutMs uint `toml:"stop_timeout_ms"`
	// only used by the images input
	FPS float64 `toml:"fps"`
}

type OutputConfig struct {
	Format      string
	Path        string
	Codec       string
	JPEGQuality int `toml:"jpeg_quality"`
}

type ModelConfig struct {
	Format              string
	Path                string
	ConfigPath          string `toml:"config_path"`
	Transpose           bool
	ScaleFactor         float64 `toml:"scale_factor"`
	Width               int
	Height              int
	ConfidenceThreshold float32 `toml:"confidence_threshold"`
	NMSThreshold        float32 `toml:"nms_threshold"`
	// index is the class id, empty keeps every class
	Classes []string
	// class ids passed to the tracker, empty keeps every class
	KeepClasses []int `toml:"keep_classes"`
	Device      string
}

type SlicingConfig struct {
	Enabled bool
	Width   int
	Height  int
	// fraction of the slice size shared by neighbours
	Overlap      float64
	IoUThreshold float32 `toml:"iou_threshold"`
}

type TrackerConfig struct {
	ActivationThreshold  float64 `toml:"activation_threshold"`
	LowThreshold         float64 `toml:"low_threshold"`
	MatchingThreshold    float64 `toml:"matching_threshold"`
	LostTrackBuffer      int     `toml:"lost_track_buffer"`
	MinConsecutiveFrames int     `toml:"min_consecutive_frames"`
	Solver               string
	ReportLost           bool `toml:"report_lost"`
}

type RenderConfig struct {
	Thickness   int
	TextScale   float64 `toml:"text_scale"`
	TextPadding int     `toml:"text_padding"`
	TrailPoints int     `toml:"trail_points"`
	Seed        uint64
}

type WebserverConfig struct {
	Enabled            bool
	Port               uint
	ReadTimeoutSec     uint `toml:"read_timeout_sec"`
	WriteTimeoutSec    uint `toml:"write_timeout_sec"`
	ShutdownTimeoutSec uint `toml:"shutdown_timeout_sec"`
	W                  uint
	H                  uint
}

type MqttConfig struct {
	Enabled    bool
	Address    string
	Topic      string
	ClientID   string `toml:"client_id"`
	Username   string
	Password   string
	TimeoutSec uint `toml:"timeout_sec"`
}

type LoggingConfig struct {
	Level         string
	StatPeriodSec uint `toml:"stat_period_sec"`
	AddSource     bool `toml:"add_source"`
}

func Default() *ConfigFile {
	return &ConfigFile{
		Input: InputConfig{
			Type:          InputFile.Value,
			Path:          "../video/input.mp4",
			Device:        0,
			Buffer:        8,
			StopTimeoutMs: 2000,
			FPS:           30,
		},
		Output: OutputConfig{
			Format:      OutputVideo.Value,
			Path:        "../video/output.mp4",
			Codec:       "mp4v",
			JPEGQuality: 90,
		},
		Model: ModelConfig{
			Format:              ModelONNX.Value,
			Path:                "../models/yolov8n.onnx",
			Transpose:           true,
			ScaleFactor:         1.0 / 255.0,
			Width:               640,
			Height:              640,
			ConfidenceThreshold: 0.1,
			NMSThreshold:        0.5,
			Classes:             []string{"person"},
			KeepClasses:         []int{0},
			Device:              DeviceCPU.Value,
		},
		Slicing: SlicingConfig{
			Enabled:      false,
			Width:        640,
			Height:       640,
			Overlap:      0.2,
			IoUThreshold: 0.5,
		},
		Tracker: TrackerConfig{
			ActivationThreshold:  0.25,
			LowThreshold:         0.1,
			MatchingThreshold:    0.8,
			LostTrackBuffer:      30,
			MinConsecutiveFrames: 2,
			Solver:               SolverJV.Value,
			ReportLost:           false,
		},
		Render: RenderConfig{
			Thickness:   2,
			TextScale:   0.5,
			TextPadding: 4,
			TrailPoints: 30,
			Seed:        42,
		},
		Webserver: WebserverConfig{
			Enabled:            false,
			Port:               8080,
			ReadTimeoutSec:     5,
			WriteTimeoutSec:    0,
			ShutdownTimeoutSec: 5,
		},
		Mqtt: MqttConfig{
			Enabled:    false,
			Address:    "127.0.0.1:1883",
			Topic:      "crowd/tracks",
			ClientID:   "crowd",
			TimeoutSec: 5,
		},
		Logging: LoggingConfig{
			Level:         LoggingLevelInfo.Value,
			StatPeriodSec: 5,
			AddSource:     false,
		},
	}
}

// Missing keys keep their default values
func Unmarshal(file_path string) (*ConfigFile, error) {
	config_file := Default()
	data, err := os.ReadFile(file_path)
	if err != nil {
		return nil,
			fmt.Errorf("Unable to read %s error: %w", file_path, err)
	}
	err = toml.Unmarshal(data, config_file)
	if err != nil {
		return nil,
			fmt.Errorf("Unable to unmarshal %s error: %w", file_path, err)
	}
	return config_file, nil
}

func CreateDefault(file_path string) error {
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("Unable to marshal default config error: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(file_path), 0o755); err != nil {
		return fmt.Errorf("Unable to create %s error: %w", filepath.Dir(file_path), err)
	}
	if err := os.WriteFile(file_path, data, 0o644); err != nil {
		return fmt.Errorf("Unable to write %s error: %w", file_path, err)
	}
	return nil
}

func (c *ConfigFile) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ERR_INVALID_CONFIG)
	}
	in_unit := func(v float64) bool { return v >= 0 && v <= 1 }

	if InputTypes.Parse(c.Input.Type) == nil {
		return invalid("input type %q", c.Input.Type)
	}
	if c.Input.Buffer < 1 {
		return invalid("input buffer %d < 1", c.Input.Buffer)
	}
	if OutputFormats.Parse(c.Output.Format) == nil {
		return invalid("output format %q", c.Output.Format)
	}
	if c.Output.Format == OutputVideo.Value && len(c.Output.Codec) != 4 {
		return invalid("codec %q is not a fourcc", c.Output.Codec)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return invalid("jpeg quality %d not in [1,100]", c.Output.JPEGQuality)
	}
	if ModelFormats.Parse(c.Model.Format) == nil {
		return invalid("model format %q", c.Model.Format)
	}
	if DeviceTypes.Parse(c.Model.Device) == nil {
		return invalid("device %q", c.Model.Device)
	}
	if c.Model.Width <= 0 || c.Model.Height <= 0 {
		return invalid("model input %dx%d", c.Model.Width, c.Model.Height)
	}
	if !in_unit(float64(c.Model.ConfidenceThreshold)) || !in_unit(float64(c.Model.NMSThreshold)) {
		return invalid("model thresholds %.3f %.3f", c.Model.ConfidenceThreshold, c.Model.NMSThreshold)
	}
	if c.Slicing.Enabled {
		if c.Slicing.Width <= 0 || c.Slicing.Height <= 0 {
			return invalid("slice %dx%d", c.Slicing.Width, c.Slicing.Height)
		}
		if c.Slicing.Overlap < 0 || c.Slicing.Overlap >= 1 {
			return invalid("slice overlap %.3f not in [0,1)", c.Slicing.Overlap)
		}
	}
	if Solvers.Parse(c.Tracker.Solver) == nil {
		return invalid("solver %q", c.Tracker.Solver)
	}
	if !in_unit(c.Tracker.ActivationThreshold) || !in_unit(c.Tracker.LowThreshold) || !in_unit(c.Tracker.MatchingThreshold) {
		return invalid("tracker thresholds must be in [0,1]")
	}
	if c.Tracker.LowThreshold > c.Tracker.ActivationThreshold {
		return invalid("low threshold %.3f above activation threshold %.3f", c.Tracker.LowThreshold, c.Tracker.ActivationThreshold)
	}
	if c.Tracker.LostTrackBuffer < 1 || c.Tracker.MinConsecutiveFrames < 1 {
		return invalid("lost track buffer and min consecutive frames must be positive")
	}
	if c.Mqtt.Enabled && (c.Mqtt.Address == "" || c.Mqtt.Topic == "") {
		return invalid("mqtt needs an address and a topic")
	}
	return nil
}
