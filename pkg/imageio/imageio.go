// Package imageio decodes sample images, encodes outputs, and renders
// terminal previews. Samples may be PNG or BMP; outputs are PNG.
package imageio

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	_ "golang.org/x/image/bmp"

	"github.com/tilewright/tilewright/pkg/errors"
)

// Decode reads a PNG or BMP image from r. The format is sniffed from
// the stream.
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "failed to decode sample image")
	}
	if format != "png" && format != "bmp" {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported sample format %q (png or bmp)", format)
	}
	return img, nil
}

// DecodeFile reads a sample image from disk.
func DecodeFile(path string) (image.Image, error) {
	if err := errors.ValidateSamplePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeSampleNotFound, err, "sample image %q does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to open sample image %q", path)
	}
	defer f.Close()
	return Decode(f)
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to encode PNG")
	}
	return nil
}

// EncodePNGFile writes img to path as PNG, creating or truncating the
// file.
func EncodePNGFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "failed to create output file %q", path)
	}
	defer f.Close()
	return EncodePNG(f, img)
}

// Preview renders img as truecolor terminal blocks, two block runes
// per pixel so cells come out roughly square.
func Preview(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			hex := fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("██"))
		}
		b.WriteString("\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write preview")
	}
	return nil
}
