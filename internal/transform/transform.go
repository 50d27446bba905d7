package transform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"math"
	"strings"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// ErrDecode marks inputs that cannot be rasterized.
var ErrDecode = errors.New("decode error")

// ErrEncode marks failures producing the output payload.
var ErrEncode = errors.New("encode error")

// Settings are the conversion parameters, read-only during a run.
type Settings struct {
	// Quality is the encoder quality factor in [0.1, 1.0].
	Quality float64
	// Scale is the uniform downscale ratio in (0, 1.0] relative to the
	// source dimensions.
	Scale float64
	// TrimRightPx is cropped from the right edge after scaling.
	TrimRightPx int
	// Matte is painted under transparent pixels before compositing.
	Matte color.NRGBA
}

// Result is the encoded output payload plus its pixel dimensions.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Transform decodes the input, scales it by Scale, trims TrimRightPx from
// the right edge, composites it over a matte-filled surface, and encodes the
// result as JPEG at the configured quality.
//
// The matte is painted before the source is composited; the reverse order
// would leave transparent source pixels showing the uninitialized surface
// instead of the matte.
func Transform(r io.Reader, settings Settings) (Result, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	targetW := scaledDimension(bounds.Dx(), settings.Scale)
	targetH := scaledDimension(bounds.Dy(), settings.Scale)

	dstW := targetW - settings.TrimRightPx
	if dstW < 1 {
		dstW = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, targetH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(settings.Matte), image.Point{}, draw.Src)

	// The scale target is the untrimmed rectangle anchored at the top-left;
	// whatever falls beyond the trimmed width is cropped by the destination
	// bounds.
	xdraw.CatmullRom.Scale(dst, image.Rect(0, 0, targetW, targetH), src, bounds, xdraw.Over, nil)

	quality := int(math.Round(settings.Quality * 100))
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return Result{Data: buf.Bytes(), Width: dstW, Height: targetH}, nil
}

// Dimensions probes the native pixel dimensions of an image without
// decoding the full raster.
func Dimensions(r io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}

// ParseMatte parses a #RGB or #RRGGBB hex color into an opaque matte.
func ParseMatte(value string) (color.NRGBA, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		r, err1 := hexNibble(v[0])
		g, err2 := hexNibble(v[1])
		b, err3 := hexNibble(v[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return color.NRGBA{}, fmt.Errorf("parse color %q: %w", value, err)
		}
		return color.NRGBA{R: r*16 + r, G: g*16 + g, B: b*16 + b, A: 0xFF}, nil
	case 6:
		var rgb [3]uint8
		for i := 0; i < 3; i++ {
			hi, err1 := hexNibble(v[i*2])
			lo, err2 := hexNibble(v[i*2+1])
			if err := errors.Join(err1, err2); err != nil {
				return color.NRGBA{}, fmt.Errorf("parse color %q: %w", value, err)
			}
			rgb[i] = hi*16 + lo
		}
		return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xFF}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("parse color %q: want #RGB or #RRGGBB", value)
	}
}

func hexNibble(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}

func scaledDimension(value int, scale float64) int {
	scaled := int(math.Round(float64(value) * scale))
	if scaled < 1 {
		return 1
	}
	return scaled
}
