package chip8

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"chip8go/pkg/grid"
)

// FramebufferRGBA decodes the frame buffer into a 64×32 RGBA8888 byte slice
// (length 64*32*4), lit pixels in fg and unlit pixels in bg. The renderer
// collaborator owns color choice; the machine itself is monochrome.
func (vm *VM) FramebufferRGBA(fg, bg color.RGBA) []byte {
	pixels := make([]byte, DisplayPixels*4)
	for i, on := range vm.FB {
		c := bg
		if on {
			c = fg
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = 0xFF
	}
	return pixels
}

// FramebufferImage returns the frame buffer as an *image.RGBA.
func (vm *VM) FramebufferImage(fg, bg color.RGBA) *image.RGBA {
	return &image.RGBA{
		Pix:    vm.FramebufferRGBA(fg, bg),
		Stride: DisplayWidth * 4,
		Rect:   image.Rect(0, 0, DisplayWidth, DisplayHeight),
	}
}

// SaveScreenshot encodes the frame buffer as a PNG and writes it to filename.
func (vm *VM) SaveScreenshot(filename string, fg, bg color.RGBA) error {
	img := vm.FramebufferImage(fg, bg)
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// RenderASCII draws the frame buffer as text, one rune per pixel, for the
// headless runner and test output.
func (vm *VM) RenderASCII(on, off rune) string {
	out := make([]rune, 0, DisplayPixels+DisplayHeight)
	for i, lit := range vm.FB {
		if lit {
			out = append(out, on)
		} else {
			out = append(out, off)
		}
		if x, _ := grid.GetGridCoords(i, DisplayWidth); x == DisplayWidth-1 {
			out = append(out, '\n')
		}
	}
	return string(out)
}
