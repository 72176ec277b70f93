package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{0, 0, 0, 255})
	return img
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("decoded bounds = %v, want 2x2", img.Bounds())
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode(strings.NewReader("not an image")); err == nil {
		t.Error("Decode() on garbage = nil error")
	}
}

func TestDecodeFileMissing(t *testing.T) {
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("DecodeFile() on missing file = nil error")
	}
}

func TestEncodePNGFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := EncodePNGFile(path, testImage()); err != nil {
		t.Fatalf("EncodePNGFile() error = %v", err)
	}

	img, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("round-tripped pixel = %d,%d,%d,%d, want 255,0,0,255", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestPreview(t *testing.T) {
	var buf bytes.Buffer
	if err := Preview(&buf, testImage()); err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 2 {
		t.Errorf("preview has %d lines, want 2", strings.Count(out, "\n"))
	}
	if !strings.Contains(out, "█") {
		t.Error("preview contains no block characters")
	}
}
