// Package overlay annotates frames with detection results for human debugging.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/frc2554/targetvision/internal/pipeline"
	"github.com/frc2554/targetvision/internal/target"
	"github.com/frc2554/targetvision/internal/vision"
)

// StyleConfig is the JSON form of Style, with colors as hex strings.
type StyleConfig struct {
	Center    string `json:"center"`
	Contour   string `json:"contour"`
	Centroid  string `json:"centroid"`
	Midpoint  string `json:"midpoint"`
	Line      string `json:"line"`
	Text      string `json:"text"`
	Radius    int    `json:"radius"`
	Thickness int    `json:"thickness"`
}

// DefaultStyleConfig matches the colors used during tuning sessions.
func DefaultStyleConfig() StyleConfig {
	return StyleConfig{
		Center:    "#0000ff",
		Contour:   "#ff0000",
		Centroid:  "#ff0000",
		Midpoint:  "#ff0000",
		Line:      "#0000ff",
		Text:      "#ff0000",
		Radius:    5,
		Thickness: 3,
	}
}

// Style holds resolved drawing colors.
type Style struct {
	Center    color.RGBA
	Contour   color.RGBA
	Centroid  color.RGBA
	Midpoint  color.RGBA
	Line      color.RGBA
	Text      color.RGBA
	Radius    int
	Thickness int
}

// DefaultStyle returns the parsed DefaultStyleConfig.
func DefaultStyle() Style {
	s, err := ParseStyle(DefaultStyleConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// ParseStyle resolves hex colors. Empty colors and non-positive sizes take
// the defaults.
func ParseStyle(cfg StyleConfig) (Style, error) {
	def := DefaultStyleConfig()

	var s Style
	fields := []struct {
		name string
		hex  string
		def  string
		dst  *color.RGBA
	}{
		{"center", cfg.Center, def.Center, &s.Center},
		{"contour", cfg.Contour, def.Contour, &s.Contour},
		{"centroid", cfg.Centroid, def.Centroid, &s.Centroid},
		{"midpoint", cfg.Midpoint, def.Midpoint, &s.Midpoint},
		{"line", cfg.Line, def.Line, &s.Line},
		{"text", cfg.Text, def.Text, &s.Text},
	}

	for _, f := range fields {
		hex := strings.TrimSpace(f.hex)
		if hex == "" {
			hex = f.def
		}
		c, err := parseHex(hex)
		if err != nil {
			return Style{}, fmt.Errorf("%s color: %w", f.name, err)
		}
		*f.dst = c
	}

	s.Radius = cfg.Radius
	if s.Radius <= 0 {
		s.Radius = def.Radius
	}
	s.Thickness = cfg.Thickness
	if s.Thickness <= 0 {
		s.Thickness = def.Thickness
	}
	return s, nil
}

func parseHex(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Label formats a yaw angle the way the dashboard shows it, e.g. "-12.15 deg".
func Label(yaw float64) string {
	s := strconv.FormatFloat(math.Round(yaw*100)/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + " deg"
}

// Draw annotates img, normally the Inspection's own resized frame.
// The image center is always marked; the matched contours, their centroids,
// the midpoint, the line to center and the yaw label are drawn only when a
// target was found.
func Draw(img *gocv.Mat, insp *pipeline.Inspection, style Style) {
	center := image.Pt(target.ImageCenterColumn(img.Cols()), (img.Rows()-1)/2)
	gocv.Circle(img, center, style.Radius, style.Center, -1)

	if insp == nil || insp.Pair == nil || !insp.Result.TargetExists {
		return
	}

	drawContours(img, []vision.Contour{insp.Pair.First.Contour, insp.Pair.Second.Contour}, style)

	r := insp.Result
	c1 := image.Pt(r.Center1[0], r.Center1[1])
	c2 := image.Pt(r.Center2[0], r.Center2[1])
	mid := image.Pt(int(r.Midpoint[0]), int(r.Midpoint[1]))

	gocv.Circle(img, c1, style.Radius, style.Centroid, -1)
	gocv.Circle(img, c2, style.Radius, style.Centroid, -1)
	gocv.Circle(img, mid, style.Radius, style.Midpoint, -1)

	gocv.PutText(img, Label(r.YawAngle), image.Pt(0, 25), gocv.FontHersheySimplex, 1, style.Text, 2)
	gocv.Line(img, mid, center, style.Line, style.Thickness)
}

func drawContours(img *gocv.Mat, contours []vision.Contour, style Style) {
	pts := make([][]image.Point, 0, len(contours))
	for _, c := range contours {
		if len(c) > 0 {
			pts = append(pts, c)
		}
	}
	if len(pts) == 0 {
		return
	}

	pvs := gocv.NewPointsVectorFromPoints(pts)
	defer pvs.Close()
	gocv.DrawContours(img, pvs, -1, style.Contour, style.Thickness)
}
