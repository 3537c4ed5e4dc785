// Package testdata builds synthetic camera frames for tests.
package testdata

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Frame dimensions matching the default resize target, so resizing is a copy.
const (
	FrameWidth  = 320
	FrameHeight = 180
)

// White is the BGR fill used for blobs; it passes the default threshold.
var White = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// CenteredRect returns the fill rectangle for a blob whose traced outline has
// corners at (cx±hw, cy±hh). gocv fills Min through Max-1 inclusive, hence the +1.
func CenteredRect(cx, cy, hw, hh int) image.Rectangle {
	return image.Rect(cx-hw, cy-hh, cx+hw+1, cy+hh+1)
}

// BlobFrame returns a black w×h BGR frame with every rect filled white.
// The caller must close the returned Mat.
func BlobFrame(w, h int, rects ...image.Rectangle) gocv.Mat {
	frame := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(0, 0, 0, 0))
	for _, r := range rects {
		gocv.Rectangle(&frame, r, White, -1)
	}
	return frame
}

// TwoBlobFrame returns a default-sized frame with two 20x40 blobs centered at
// (50,60) and (150,60).
func TwoBlobFrame() gocv.Mat {
	return BlobFrame(FrameWidth, FrameHeight,
		CenteredRect(50, 60, 10, 20),
		CenteredRect(150, 60, 10, 20),
	)
}

// WriteFrame encodes frame as PNG into dir/name and returns the full path.
func WriteFrame(dir, name string, frame gocv.Mat) (string, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, frame)
	if err != nil {
		return "", fmt.Errorf("encode frame %s: %w", name, err)
	}
	defer buf.Close()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.GetBytes(), 0o644); err != nil {
		return "", fmt.Errorf("write frame %s: %w", name, err)
	}
	return path, nil
}
