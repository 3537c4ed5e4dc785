// Package app runs the per-frame vision loop: acquire a frame, detect the
// target, publish the result and update the debug stream.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/frc2554/targetvision/internal/capture"
	"github.com/frc2554/targetvision/internal/overlay"
	"github.com/frc2554/targetvision/internal/pipeline"
	"github.com/frc2554/targetvision/internal/target"
	"github.com/frc2554/targetvision/internal/telemetry"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("app: missing dependency")

// FrameSink receives the output frame of every processed iteration.
// *server.FrameBuffer implements it.
type FrameSink interface {
	Update(img gocv.Mat) error
}

// Config holds the collaborators of the application.
type Config struct {
	Pipeline  *pipeline.Pipeline
	Camera    capture.Camera
	Publisher telemetry.Publisher
	// Frames receives the resized frame; optional.
	Frames FrameSink
	// Overlay annotates the frame before it reaches Frames; nil sends it plain.
	Overlay *overlay.Style
	// FPS is the loop rate; zero uses the camera's rate.
	FPS   int
	Debug bool
}

// App is the vision coprocessor loop.
type App struct {
	config   Config
	enabled  bool
	last     target.DetectionResult
	onResult func(target.DetectionResult)
	mu       sync.RWMutex
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates an App. Processing starts enabled.
func New(config Config) (*App, error) {
	if config.Pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline", ErrMissingDependency)
	}
	if config.Camera == nil {
		return nil, fmt.Errorf("%w: camera", ErrMissingDependency)
	}
	if config.Publisher == nil {
		config.Publisher = telemetry.Multi()
	}

	return &App{
		config:  config,
		enabled: true,
		last:    target.NoTarget(),
	}, nil
}

// SetEnabled pauses or resumes processing. A paused loop does not read frames.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnResult registers fn to be called after every processed frame.
func (a *App) OnResult(fn func(target.DetectionResult)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = fn
}

// LastResult returns the result of the most recently processed frame.
func (a *App) LastResult() target.DetectionResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Running reports whether the loop is started.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// ProcessFrame runs the pipeline on frame, publishes the result and feeds the
// frame sink. Publish and sink failures are logged, not returned.
func (a *App) ProcessFrame(frame *gocv.Mat) (target.DetectionResult, error) {
	insp, err := a.config.Pipeline.Inspect(frame)
	if err != nil {
		return target.DetectionResult{}, err
	}
	defer insp.Close()

	result := insp.Result
	if a.config.Debug {
		log.Printf("result: exists=%t yaw=%.2f mid=%v", result.TargetExists, result.YawAngle, result.Midpoint)
	}

	if err := a.config.Publisher.Publish(result); err != nil {
		log.Printf("Error publishing result: %v", err)
	}

	if a.config.Frames != nil {
		if a.config.Overlay != nil {
			overlay.Draw(&insp.Frame, insp, *a.config.Overlay)
		}
		if err := a.config.Frames.Update(insp.Frame); err != nil {
			log.Printf("Error updating output frame: %v", err)
		}
	}

	a.mu.Lock()
	a.last = result
	fn := a.onResult
	a.mu.Unlock()

	if fn != nil {
		fn(result)
	}
	return result, nil
}

// Start opens the camera and begins the loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}

	fps := a.config.FPS
	if fps > 0 {
		a.config.Camera.SetFPS(fps)
	} else {
		fps = a.config.Camera.FPS()
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(fps, a.stopCh, a.done)

	log.Println("Vision loop started")
	return nil
}

// Stop halts the loop, waits for the current iteration and closes the camera.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.config.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	log.Println("Vision loop stopped")
}
