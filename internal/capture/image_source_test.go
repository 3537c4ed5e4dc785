package capture

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// writePNG saves a w×h image filled with c.
func writePNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	img := imaging.New(w, h, c)
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
	return path
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png", 4, 4, color.White)
	writePNG(t, dir, "a.png", 4, 4, color.White)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	want := []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	single, err := ListImages(want[1])
	if err != nil || len(single) != 1 || single[0] != want[1] {
		t.Errorf("ListImages(file) = %v, %v", single, err)
	}

	if _, err := ListImages(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestNewImageSource_Empty(t *testing.T) {
	if _, err := NewImageSource(t.TempDir(), 0, 0, false); err == nil {
		t.Error("expected error for directory without images")
	}
}

func TestImageSource_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	dir := t.TempDir()
	// Pure red in RGB; the Mat must hold it in BGR order.
	writePNG(t, dir, "frame1.png", 64, 48, color.NRGBA{R: 255, A: 255})
	writePNG(t, dir, "frame2.png", 64, 48, color.NRGBA{G: 255, A: 255})

	src, err := NewImageSource(dir, 32, 24, false)
	if err != nil {
		t.Fatalf("NewImageSource: %v", err)
	}
	if err := src.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	f, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.Cols() != 32 || f.Rows() != 24 || f.Channels() != 3 {
		t.Errorf("frame %dx%dx%d, want 32x24x3", f.Cols(), f.Rows(), f.Channels())
	}
	px := f.GetVecbAt(10, 10)
	if px[0] != 0 || px[1] != 0 || px[2] != 255 {
		t.Errorf("pixel = %v, want BGR [0 0 255]", px)
	}
	f.Close()

	f, err = src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	f.Close()

	if _, err := src.ReadFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("ReadFrame() after last image error = %v, want ErrNoFrame", err)
	}
}

func TestImageSource_NotOpen(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "f.png", 4, 4, color.White)

	src, err := NewImageSource(path, 0, 0, true)
	if err != nil {
		t.Fatalf("NewImageSource: %v", err)
	}
	if src.IsOpen() {
		t.Error("IsOpen() before Open")
	}
	if _, err := src.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestImageSource_FPS(t *testing.T) {
	path := writePNG(t, t.TempDir(), "f.png", 4, 4, color.White)

	src, err := NewImageSource(path, 0, 0, true)
	if err != nil {
		t.Fatalf("NewImageSource: %v", err)
	}

	var cam Camera = src
	cam.SetFPS(5)
	if got := cam.FPS(); got != DefaultFPS {
		t.Errorf("FPS() after SetFPS(5) = %d, want %d", got, DefaultFPS)
	}
}
