package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
}

// ImageSource replays still images as a camera, for bench testing without
// hardware. EXIF orientation is applied on load.
type ImageSource struct {
	paths   []string
	width   int
	height  int
	loop    bool
	frames  []gocv.Mat
	index   int
	mu      sync.Mutex
	running bool
}

// NewImageSource replays the image at path, or every image in path when it is
// a directory, in name order. A positive width and height resize each image on
// load.
func NewImageSource(path string, width, height int, loop bool) (*ImageSource, error) {
	paths, err := ListImages(path)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", path)
	}
	return &ImageSource{
		paths:  paths,
		width:  width,
		height: height,
		loop:   loop,
	}, nil
}

// ListImages returns path itself when it is a file, or the sorted image files
// directly inside it when it is a directory.
func ListImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadImage decodes path into a BGR Mat. The caller must close it.
func LoadImage(path string, width, height int) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("load image %s: %w", path, err)
	}

	var src image.Image = img
	if width > 0 && height > 0 {
		src = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	mat, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert image %s: %w", path, err)
	}
	return mat, nil
}

// Open decodes every image up front.
func (s *ImageSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	frames := make([]gocv.Mat, 0, len(s.paths))
	for _, p := range s.paths {
		mat, err := LoadImage(p, s.width, s.height)
		if err != nil {
			for _, f := range frames {
				f.Close()
			}
			return err
		}
		frames = append(frames, mat)
	}

	s.frames = frames
	s.index = 0
	s.running = true
	return nil
}

// Close releases the decoded frames.
func (s *ImageSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.frames {
		f.Close()
	}
	s.frames = nil
	s.running = false
	return nil
}

// ReadFrame returns a copy of the next image.
func (s *ImageSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrCameraNotOpen
	}

	if s.index >= len(s.frames) {
		if !s.loop {
			return nil, fmt.Errorf("image source exhausted: %w", ErrNoFrame)
		}
		s.index = 0
	}

	frame := s.frames[s.index].Clone()
	s.index++
	return &frame, nil
}

// SetFPS is a no-op; replay speed is set by the caller's loop rate.
func (s *ImageSource) SetFPS(fps int) {}

// FPS returns DefaultFPS, the rate reported for replayed images.
func (s *ImageSource) FPS() int {
	return DefaultFPS
}

// IsOpen reports whether the images are loaded.
func (s *ImageSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Paths returns the image files in playback order.
func (s *ImageSource) Paths() []string {
	return append([]string(nil), s.paths...)
}
