package emit

import (
	"image"

	"github.com/claimhawk/desktopgen/pkg/models"
)

// Frame describes the emitted image's window into full-frame pixel space.
// Every coordinate conversion in the pipeline goes through a Frame so that
// training and test emission can never diverge.
type Frame struct {
	OffsetX int
	OffsetY int
	Width   int
	Height  int
}

// FullFrame is the identity frame for an uncropped scene.
func FullFrame(width, height int) Frame {
	return Frame{Width: width, Height: height}
}

// RegionFrame is the frame of a scene cropped to a region's bounding box.
func RegionFrame(r models.Rect) Frame {
	return Frame{OffsetX: r.X, OffsetY: r.Y, Width: r.Width, Height: r.Height}
}

// Rel converts an absolute full-frame point to frame-relative pixels.
func (f Frame) Rel(absX, absY int) (int, int) {
	return absX - f.OffsetX, absY - f.OffsetY
}

// ToRU converts an absolute full-frame point to normalized units [0, 1000)
// of the frame: floor(rel / dim * 1000) per axis against the emitted
// dimensions, never the full-frame ones.
func (f Frame) ToRU(absX, absY int) (int, int) {
	relX, relY := f.Rel(absX, absY)
	return relX * 1000 / f.Width, relY * 1000 / f.Height
}

// BboxToRU converts an absolute bounding rectangle to [x1, y1, x2, y2] in
// normalized units of the frame.
func (f Frame) BboxToRU(r models.Rect) [4]int {
	x1, y1 := f.ToRU(r.X, r.Y)
	x2, y2 := f.ToRU(r.X+r.Width, r.Y+r.Height)
	return [4]int{x1, y1, x2, y2}
}

// Crop returns the frame's window of a rendered image. The identity frame
// returns the image unchanged.
func (f Frame) Crop(img *image.RGBA) *image.RGBA {
	if f.OffsetX == 0 && f.OffsetY == 0 &&
		f.Width == img.Bounds().Dx() && f.Height == img.Bounds().Dy() {
		return img
	}
	rect := image.Rect(f.OffsetX, f.OffsetY, f.OffsetX+f.Width, f.OffsetY+f.Height)
	cropped := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		srcOff := img.PixOffset(rect.Min.X, rect.Min.Y+y)
		dstOff := cropped.PixOffset(0, y)
		copy(cropped.Pix[dstOff:dstOff+f.Width*4], img.Pix[srcOff:srcOff+f.Width*4])
	}
	return cropped
}
