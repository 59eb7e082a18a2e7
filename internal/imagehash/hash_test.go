package imagehash

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// encodePNG renders a solid block with an optional bright square, giving
// payloads whose hashes are stable under resampling.
func encodePNG(t *testing.T, w, h int, base color.Gray, square bool) []byte {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, base)
		}
	}
	if square {
		for y := 0; y < h/2; y++ {
			for x := 0; x < w/2; x++ {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestAverage(t *testing.T) {
	t.Run("fingerprint has one bit per grid cell", func(t *testing.T) {
		data := encodePNG(t, 64, 64, color.Gray{Y: 40}, true)

		fp, err := Average(data, 8)
		if err != nil {
			t.Fatalf("Average() error = %v", err)
		}
		if len(fp) != 64 {
			t.Errorf("fingerprint length = %d, want 64", len(fp))
		}
	})

	t.Run("same content at different sizes hashes alike", func(t *testing.T) {
		a, err := Average(encodePNG(t, 64, 64, color.Gray{Y: 40}, true), 8)
		if err != nil {
			t.Fatalf("Average() error = %v", err)
		}
		b, err := Average(encodePNG(t, 128, 128, color.Gray{Y: 40}, true), 8)
		if err != nil {
			t.Fatalf("Average() error = %v", err)
		}

		if !Similar(a, b, 6) {
			t.Errorf("distance = %d, want <= 6", Distance(a, b))
		}
	})

	t.Run("different content hashes apart", func(t *testing.T) {
		withSquare, err := Average(encodePNG(t, 64, 64, color.Gray{Y: 40}, true), 8)
		if err != nil {
			t.Fatalf("Average() error = %v", err)
		}

		// Bright square in the opposite corner.
		img := image.NewGray(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				if x >= 32 && y >= 32 {
					img.SetGray(x, y, color.Gray{Y: 255})
				} else {
					img.SetGray(x, y, color.Gray{Y: 40})
				}
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encoding test image: %v", err)
		}
		flipped, err := Average(buf.Bytes(), 8)
		if err != nil {
			t.Fatalf("Average() error = %v", err)
		}

		if Similar(withSquare, flipped, 6) {
			t.Errorf("distance = %d, expected > 6", Distance(withSquare, flipped))
		}
	})

	t.Run("undecodable payload errors", func(t *testing.T) {
		if _, err := Average([]byte("not an image"), 8); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Fingerprint
		want int
	}{
		{"identical", "0101", "0101", 0},
		{"one bit", "0101", "0100", 1},
		{"all bits", "1111", "0000", 4},
		{"empty left", "", "0101", -1},
		{"length mismatch", "01", "0101", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	if !Similar("0101", "0100", 1) {
		t.Error("expected similarity at threshold")
	}
	if Similar("0101", "0110", 1) {
		t.Error("expected dissimilarity above threshold")
	}
	if Similar("", "", 6) {
		t.Error("incomparable fingerprints must never be similar")
	}
}
