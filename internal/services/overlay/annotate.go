package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"distancing-worker-go/internal/models"
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Style controls how detections and the status bar are drawn
type Style struct {
	Opacity      float64
	MarkerRadius float64
	MarkerWidth  float64
	FontSize     float64
	SafeColor    models.Color
	AlertColor   models.Color
	BarColor     models.Color
	LabelColor   models.Color
}

// DefaultStyle matches the classic social distancing overlay: translucent
// boxes, a 5px centroid ring and a dark status bar in the bottom-left corner.
func DefaultStyle() Style {
	return Style{
		Opacity:      DefaultOpacity,
		MarkerRadius: 5,
		MarkerWidth:  1,
		FontSize:     12,
		SafeColor:    models.ColorSafe,
		AlertColor:   models.ColorViolation,
		BarColor:     models.ColorStatusBar,
		LabelColor:   models.ColorLabel,
	}
}

// StatusBarRegion returns the status bar rectangle for a frame of height h
func StatusBarRegion(h int) models.Region {
	return models.NewRegion(0, h-50, 150, h-10)
}

// StatusLabel returns the text drawn in the status bar
func StatusLabel(violations int) string {
	return fmt.Sprintf("Violations: %d", violations)
}

// ColorFor picks the annotation color of detection i
func (s Style) ColorFor(i int, violations models.ViolationSet) models.Color {
	if violations.Contains(i) {
		return s.AlertColor
	}
	return s.SafeColor
}

// Annotate draws a centroid marker and a translucent box for every detection,
// colored by violation status, followed by the status bar with the violation
// count. The input frame is not modified; all drawing happens on one copy.
func Annotate(frame image.Image, detections models.DetectionSet, violations models.ViolationSet, style Style) (*image.NRGBA, error) {
	if !validOpacity(style.Opacity) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidOpacity, style.Opacity)
	}

	out := imaging.Clone(frame)
	origin := frame.Bounds().Min

	for i, det := range detections {
		c := style.ColorFor(i, violations)

		drawMarker(out, det.Centroid.Sub(origin), c, style)

		box, err := ClipRegion(out.Bounds(), shift(det.BBox, origin))
		if err != nil {
			continue
		}
		blendRect(out, box, c, style.Opacity)
	}

	h := out.Bounds().Dy()
	bar, err := ClipRegion(out.Bounds(), StatusBarRegion(h))
	if errors.Is(err, ErrInvalidRegion) {
		// frame too small for a status bar
		return out, nil
	}
	blendRect(out, bar, style.BarColor, style.Opacity)
	drawLabel(out, StatusLabel(violations.Len()), image.Pt(10, h-25), style)

	return out, nil
}

func shift(r models.Region, origin image.Point) models.Region {
	return models.NewRegion(r.X1-origin.X, r.Y1-origin.Y, r.X2-origin.X, r.Y2-origin.Y)
}

// drawMarker strokes the ring on a small patch around p and composites it
// onto img, so the cost does not grow with the frame size.
func drawMarker(img *image.NRGBA, p image.Point, c models.Color, style Style) {
	pad := int(math.Ceil(style.MarkerRadius + style.MarkerWidth))
	dc := gg.NewContext(2*pad+1, 2*pad+1)
	dc.SetColor(c.RGBA())
	dc.SetLineWidth(style.MarkerWidth)
	dc.DrawCircle(float64(pad), float64(pad), style.MarkerRadius)
	dc.Stroke()

	dst := image.Rect(p.X-pad, p.Y-pad, p.X+pad+1, p.Y+pad+1)
	draw.Draw(img, dst, dc.Image(), image.Point{}, draw.Over)
}

// drawLabel renders text on a strip covering the bottom 50 rows, where the
// status bar lives, with p given in frame coordinates.
func drawLabel(img *image.NRGBA, text string, p image.Point, style Style) {
	b := img.Bounds()
	strip := image.Rect(b.Min.X, max(b.Min.Y, b.Max.Y-50), b.Max.X, b.Max.Y)

	dc := gg.NewContext(strip.Dx(), strip.Dy())
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: style.FontSize}))
	dc.SetColor(style.LabelColor.RGBA())
	dc.DrawString(text, float64(p.X-strip.Min.X), float64(p.Y-strip.Min.Y))

	draw.Draw(img, strip, dc.Image(), image.Point{}, draw.Over)
}
