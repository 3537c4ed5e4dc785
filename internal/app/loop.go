package app

import (
	"log"
	"time"
)

// run is the capture loop. Each tick reads one frame and processes it. A
// failed read is logged and the iteration skipped: nothing is published for
// it, so consumers never see a stale result republished.
func (a *App) run(fps int, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			a.step()
		}
	}
}

// step processes a single camera frame.
func (a *App) step() {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return
	}
	defer frame.Close()

	if _, err := a.ProcessFrame(frame); err != nil {
		log.Printf("Error processing frame: %v", err)
	}
}
