// Package observe turns simulation snapshots into fixed-shape,
// normalized image observations for a downstream vision-language
// model. It is a pure consumer of the core: it reads snapshots and the
// scene's coordinate mapper and never writes back.
package observe

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/marblerl/gripsim/internal/core/mapper"
	"github.com/marblerl/gripsim/internal/core/scene"
)

// Config tunes the overlay rendering.
type Config struct {
	// MarkerRadiusPx is the radius of the overlaid position markers.
	MarkerRadiusPx int
}

// DefaultConfig returns the rendering parameters used in training.
func DefaultConfig() Config {
	return Config{MarkerRadiusPx: 8}
}

// Observation is a fixed-shape observation: a row-major RGB image of
// ImageSize×ImageSize float32 values normalized to [0, 1], plus the
// task prompt.
type Observation struct {
	Image  []float32
	Width  int
	Height int
	Prompt string
}

// Prompt is the fixed task instruction paired with every observation.
const Prompt = "pick up the red object and place it in the green target zone"

// Marker colors per overlay role.
var (
	colorGripper   = color.RGBA{R: 255, A: 255}
	colorPickup    = color.RGBA{R: 255, A: 255}
	colorObstacle1 = color.RGBA{B: 255, A: 255}
	colorObstacle2 = color.RGBA{R: 255, G: 255, A: 255}
	colorTarget    = color.RGBA{G: 255, A: 255}
)

// Builder composes observations for one scene. The background
// photograph is decoded and rescaled once at construction and cached.
type Builder struct {
	log        *zap.Logger
	cfg        Config
	m          *mapper.Mapper
	background *image.RGBA
}

// NewBuilder caches the scene background scaled to the observation
// size. A nil background produces a neutral gray canvas, which keeps
// headless runs and tests free of asset files.
func NewBuilder(m *mapper.Mapper, background image.Image, cfg Config, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	bounds := image.Rect(0, 0, scene.ImageSize, scene.ImageSize)
	cached := image.NewRGBA(bounds)
	if background != nil {
		xdraw.ApproxBiLinear.Scale(cached, bounds, background, background.Bounds(), xdraw.Src, nil)
	} else {
		draw.Draw(cached, bounds, image.NewUniform(color.RGBA{R: 128, G: 128, B: 128, A: 255}), image.Point{}, draw.Src)
	}
	return &Builder{log: log, cfg: cfg, m: m, background: cached}
}

// LoadBackground decodes a PNG scene photograph from disk.
func LoadBackground(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open background: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode background %s: %w", path, err)
	}
	return img, nil
}

// Observe projects the snapshot's poses into pixel space, overlays the
// role markers on the cached background and returns the normalized
// observation.
func (b *Builder) Observe(snap scene.Snapshot) Observation {
	img := image.NewRGBA(b.background.Bounds())
	copy(img.Pix, b.background.Pix)

	// Target first so moving markers draw over it.
	fillCircle(img, b.m.WorldToPixel(snap.Target), b.cfg.MarkerRadiusPx, colorTarget)
	for _, o := range snap.Objects {
		fillCircle(img, b.m.WorldToPixel(o.Position), b.cfg.MarkerRadiusPx, objectColor(o.ID))
	}
	fillCircle(img, b.m.WorldToPixel(snap.Gripper), b.cfg.MarkerRadiusPx, colorGripper)

	out := make([]float32, scene.ImageSize*scene.ImageSize*3)
	i := 0
	for y := 0; y < scene.ImageSize; y++ {
		for x := 0; x < scene.ImageSize; x++ {
			off := img.PixOffset(x, y)
			out[i] = float32(img.Pix[off]) / 255
			out[i+1] = float32(img.Pix[off+1]) / 255
			out[i+2] = float32(img.Pix[off+2]) / 255
			i += 3
		}
	}

	return Observation{
		Image:  out,
		Width:  scene.ImageSize,
		Height: scene.ImageSize,
		Prompt: Prompt,
	}
}

func objectColor(id scene.ObjectID) color.RGBA {
	switch id {
	case scene.ObjectObstacle1:
		return colorObstacle1
	case scene.ObjectObstacle2:
		return colorObstacle2
	default:
		return colorPickup
	}
}

func fillCircle(img *image.RGBA, center image.Point, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := center.X+dx, center.Y+dy
			if (image.Point{X: x, Y: y}).In(img.Bounds()) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}
