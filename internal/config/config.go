// Package config loads the camera-server file and the vision tuning file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/frc2554/targetvision/internal/capture"
	"github.com/frc2554/targetvision/internal/overlay"
	"github.com/frc2554/targetvision/internal/pipeline"
)

// DefaultServerPath is where the coprocessor image keeps the camera config.
const DefaultServerPath = "/boot/frc.json"

// ErrInvalidConfig is returned for files that parse but are missing required values.
var ErrInvalidConfig = errors.New("invalid config")

// Mode selects whether the dashboard table is served locally or joined.
type Mode string

const (
	ModeClient Mode = "client"
	ModeServer Mode = "server"
)

// CameraConfig is one entry of the "cameras" array.
type CameraConfig struct {
	Name   string
	Path   string
	Width  int
	Height int
	FPS    int
	// Stream holds the optional "stream" object untouched.
	Stream json.RawMessage
	// Raw is the whole camera object as read.
	Raw json.RawMessage
}

// Capture converts the entry into a capture configuration.
func (c CameraConfig) Capture() capture.Config {
	return capture.Config{
		Name:   c.Name,
		Path:   c.Path,
		Width:  c.Width,
		Height: c.Height,
		FPS:    c.FPS,
	}
}

// Server is the camera-server configuration.
type Server struct {
	Team    int
	Mode    Mode
	Cameras []CameraConfig
}

type rawServer struct {
	Team    *int              `json:"team"`
	NTMode  *string           `json:"ntmode"`
	Cameras []json.RawMessage `json:"cameras"`
}

type rawCamera struct {
	Name   *string         `json:"name"`
	Path   *string         `json:"path"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	FPS    int             `json:"fps"`
	Stream json.RawMessage `json:"stream"`
}

// LoadServer reads and validates the camera-server file at path.
// An unrecognized ntmode is logged and the default client mode is kept.
func LoadServer(path string) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return ParseServer(path, data)
}

// ParseServer parses camera-server JSON. name is used in error messages.
func ParseServer(name string, data []byte) (*Server, error) {
	var raw rawServer
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config error in %s: must be JSON object: %w", name, err)
	}

	if raw.Team == nil {
		return nil, fmt.Errorf("%w: %s: could not read team number", ErrInvalidConfig, name)
	}

	cfg := &Server{Team: *raw.Team, Mode: ModeClient}

	if raw.NTMode != nil {
		switch Mode(strings.ToLower(*raw.NTMode)) {
		case ModeClient:
			cfg.Mode = ModeClient
		case ModeServer:
			cfg.Mode = ModeServer
		default:
			log.Printf("config error in %s: could not understand ntmode value %q", name, *raw.NTMode)
		}
	}

	if raw.Cameras == nil {
		return nil, fmt.Errorf("%w: %s: could not read cameras", ErrInvalidConfig, name)
	}

	for i, data := range raw.Cameras {
		cam, err := parseCamera(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: camera %d: %v", ErrInvalidConfig, name, i, err)
		}
		cfg.Cameras = append(cfg.Cameras, cam)
	}

	return cfg, nil
}

func parseCamera(data json.RawMessage) (CameraConfig, error) {
	var raw rawCamera
	if err := json.Unmarshal(data, &raw); err != nil {
		return CameraConfig{}, err
	}
	if raw.Name == nil {
		return CameraConfig{}, errors.New("could not read camera name")
	}
	if raw.Path == nil {
		return CameraConfig{}, fmt.Errorf("camera %q: could not read path", *raw.Name)
	}
	return CameraConfig{
		Name:   *raw.Name,
		Path:   *raw.Path,
		Width:  raw.Width,
		Height: raw.Height,
		FPS:    raw.FPS,
		Stream: raw.Stream,
		Raw:    data,
	}, nil
}

// LoadVision reads a pipeline tuning file. Values present in the file
// override pipeline.DefaultConfig(); absent ones keep their defaults.
// An empty path returns the defaults. The result is validated.
func LoadVision(path string) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadStyle reads an overlay style file over overlay.DefaultStyleConfig().
// An empty path returns the default style.
func LoadStyle(path string) (overlay.Style, error) {
	cfg := overlay.DefaultStyleConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return overlay.Style{}, fmt.Errorf("could not open %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return overlay.Style{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	style, err := overlay.ParseStyle(cfg)
	if err != nil {
		return overlay.Style{}, fmt.Errorf("%s: %w", path, err)
	}
	return style, nil
}
