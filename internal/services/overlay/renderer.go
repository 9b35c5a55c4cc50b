package overlay

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"distancing-worker-go/internal/models"
)

// DefaultOpacity is the blend factor used when callers have no preference
const DefaultOpacity = 0.5

var (
	// ErrInvalidRegion is returned when a region has no pixels inside the
	// frame after clipping. Callers should treat it as a no-op.
	ErrInvalidRegion = errors.New("region lies outside the frame")
	// ErrInvalidOpacity is returned for an opacity outside [0,1]
	ErrInvalidOpacity = errors.New("opacity must be within [0,1]")
)

// ClipRegion intersects region with the frame bounds
func ClipRegion(bounds image.Rectangle, region models.Region) (image.Rectangle, error) {
	clipped := region.Rect().Intersect(bounds)
	if clipped.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: %v not in %v", ErrInvalidRegion, region.Rect(), bounds)
	}
	return clipped, nil
}

// DrawTransparentRegion returns a copy of frame with region filled by c and
// blended as out = opacity*fill + (1-opacity)*frame, rounded per channel.
// Pixels outside the region are left untouched and frame itself is never
// modified. The copy always starts at (0,0), so a frame whose bounds start
// elsewhere (a SubImage) comes back translated by -frame.Bounds().Min.
func DrawTransparentRegion(frame image.Image, region models.Region, c models.Color, opacity float64) (*image.NRGBA, error) {
	if !validOpacity(opacity) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidOpacity, opacity)
	}

	clipped, err := ClipRegion(frame.Bounds(), region)
	if err != nil {
		return nil, err
	}

	out := imaging.Clone(frame)
	blendRect(out, clipped.Sub(frame.Bounds().Min), c, opacity)
	return out, nil
}

// NaN fails both comparisons
func validOpacity(opacity float64) bool {
	return opacity >= 0 && opacity <= 1
}

// blendRect blends c into img over r in place. The fill is opaque, so alpha
// moves towards 255 the same way the color channels move towards c.
func blendRect(img *image.NRGBA, r image.Rectangle, c models.Color, opacity float64) {
	r = r.Intersect(img.Bounds())
	if r.Empty() || opacity == 0 {
		return
	}

	fill := [4]float64{float64(c.R), float64(c.G), float64(c.B), 255}
	keep := 1 - opacity
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			px := img.Pix[i : i+4 : i+4]
			for ch := range px {
				px[ch] = uint8(math.Round(opacity*fill[ch] + keep*float64(px[ch])))
			}
			i += 4
		}
	}
}
