package emit

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/claimhawk/desktopgen/pkg/models"
)

func TestFrame_ToRU_FullFrame(t *testing.T) {
	f := FullFrame(1920, 1080)

	x, y := f.ToRU(100, 100)
	if x != 52 || y != 92 {
		t.Errorf("ToRU(100, 100) = (%d, %d), want (52, 92)", x, y)
	}

	// Values are floored, never rounded up.
	x, y = f.ToRU(1919, 1079)
	if x != 999 || y != 999 {
		t.Errorf("ToRU(1919, 1079) = (%d, %d), want (999, 999)", x, y)
	}

	x, y = f.ToRU(0, 0)
	if x != 0 || y != 0 {
		t.Errorf("ToRU(0, 0) = (%d, %d), want (0, 0)", x, y)
	}
}

func TestFrame_BboxToRU(t *testing.T) {
	f := FullFrame(1920, 1080)
	got := f.BboxToRU(models.Rect{X: 100, Y: 100, Width: 200, Height: 50})
	want := [4]int{52, 92, 156, 138}
	if got != want {
		t.Errorf("BboxToRU = %v, want %v", got, want)
	}
}

func TestFrame_CropRebasesCoordinates(t *testing.T) {
	crop := RegionFrame(models.Rect{X: 0, Y: 0, Width: 1914, Height: 1032})

	relX, relY := crop.Rel(957, 516)
	if relX != 957 || relY != 516 {
		t.Errorf("Rel = (%d, %d)", relX, relY)
	}

	offset := RegionFrame(models.Rect{X: 100, Y: 200, Width: 800, Height: 600})
	relX, relY = offset.Rel(500, 500)
	if relX != 400 || relY != 300 {
		t.Errorf("Rel against offset crop = (%d, %d), want (400, 300)", relX, relY)
	}

	ruX, ruY := offset.ToRU(500, 500)
	if ruX != 400*1000/800 || ruY != 300*1000/600 {
		t.Errorf("ToRU against offset crop = (%d, %d)", ruX, ruY)
	}
}

// Inverse-scaling a normalized coordinate against the emitted dimensions and
// adding the crop offset must reproduce the original full-frame center up to
// the quantization step of the normalization.
func TestFrame_CropRoundTrip(t *testing.T) {
	frame := RegionFrame(models.Rect{X: 120, Y: 80, Width: 1680, Height: 900})
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		absX := frame.OffsetX + rng.Intn(frame.Width)
		absY := frame.OffsetY + rng.Intn(frame.Height)

		ruX, ruY := frame.ToRU(absX, absY)

		backX := ruX*frame.Width/1000 + frame.OffsetX
		backY := ruY*frame.Height/1000 + frame.OffsetY

		stepX := frame.Width/1000 + 1
		stepY := frame.Height/1000 + 1
		if diff := absX - backX; diff < -stepX || diff > stepX {
			t.Fatalf("x round trip: %d -> %d -> %d (step %d)", absX, ruX, backX, stepX)
		}
		if diff := absY - backY; diff < -stepY || diff > stepY {
			t.Fatalf("y round trip: %d -> %d -> %d (step %d)", absY, ruY, backY, stepY)
		}

		// Re-normalizing the recovered point is stable within one unit.
		ruX2, ruY2 := frame.ToRU(backX, backY)
		if d := ruX - ruX2; d < -1 || d > 1 {
			t.Fatalf("x RU drift: %d vs %d", ruX, ruX2)
		}
		if d := ruY - ruY2; d < -1 || d > 1 {
			t.Fatalf("y RU drift: %d vs %d", ruY, ruY2)
		}
	}
}

func TestFrame_CropImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}

	frame := RegionFrame(models.Rect{X: 10, Y: 20, Width: 40, Height: 30})
	cropped := frame.Crop(img)

	if b := cropped.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("cropped size = %dx%d, want 40x30", b.Dx(), b.Dy())
	}
	if got := cropped.RGBAAt(0, 0); got != (color.RGBA{10, 20, 0, 255}) {
		t.Errorf("cropped origin = %+v, want source (10, 20)", got)
	}
	if got := cropped.RGBAAt(39, 29); got != (color.RGBA{49, 49, 0, 255}) {
		t.Errorf("cropped corner = %+v, want source (49, 49)", got)
	}

	// Identity frame returns the image itself.
	full := FullFrame(100, 80)
	if full.Crop(img) != img {
		t.Error("identity crop should return the original image")
	}
}
