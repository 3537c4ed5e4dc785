package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// streamInterval paces the MJPEG stream, about 15 FPS.
const streamInterval = 66 * time.Millisecond

// FrameBuffer holds the most recent JPEG-encoded output frame.
type FrameBuffer struct {
	mu   sync.RWMutex
	data []byte
	seq  uint64
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Update encodes img as JPEG and makes it the latest frame.
func (b *FrameBuffer) Update(img gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	b.Set(buf.GetBytes())
	return nil
}

// Set stores an already encoded JPEG. The bytes are copied.
func (b *FrameBuffer) Set(jpeg []byte) {
	data := make([]byte, len(jpeg))
	copy(data, jpeg)

	b.mu.Lock()
	b.data = data
	b.seq++
	b.mu.Unlock()
}

// Latest returns the latest frame and its sequence number. The sequence is
// zero until the first frame arrives.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data, b.seq
}

// StreamHandler serves the frames of a FrameBuffer as MJPEG.
type StreamHandler struct {
	frames *FrameBuffer
}

// NewStreamHandler creates a new StreamHandler reading from frames.
func NewStreamHandler(frames *FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is written only
// when it differs from the last one sent.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.stream(r.Context(), w)
}

func (h *StreamHandler) stream(ctx context.Context, w http.ResponseWriter) {
	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var sent uint64
	for {
		if data, seq := h.frames.Latest(); seq != sent {
			if err := writePart(w, data); err != nil {
				return
			}
			sent = seq
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, data []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\r\n"); err != nil {
		return err
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
