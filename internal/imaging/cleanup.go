// Package imaging removes stamps, seals and logos from rasterized pages
// before they are sent to OCR.
package imaging

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
)

// DefaultMinAreaFraction is the share of the page area above which a dark
// component's bounding box marks it as an artifact. On a letter page at
// 300 DPI it equals roughly 0.03 square inches.
const DefaultMinAreaFraction = 0.0003

// Result describes a cleanup run.
type Result struct {
	Threshold uint8
	// Components is the number of dark connected components found.
	Components int
	// Removed is the number of components that were white-filled.
	Removed int
}

// ToGray converts img to an 8-bit grayscale image with bounds starting at 0,0.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// OtsuThreshold returns the gray level that best separates dark ink from the
// page background. Pixels at or below the threshold are foreground.
func OtsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumBackground float64
		weightBelow   int
		best          float64
		threshold     int
	)
	for t := 0; t < 256; t++ {
		weightBelow += hist[t]
		if weightBelow == 0 {
			continue
		}
		weightAbove := total - weightBelow
		if weightAbove == 0 {
			break
		}
		sumBackground += float64(t * hist[t])
		meanBelow := sumBackground / float64(weightBelow)
		meanAbove := (sum - sumBackground) / float64(weightAbove)
		between := float64(weightBelow) * float64(weightAbove) * (meanBelow - meanAbove) * (meanBelow - meanAbove)
		if between > best {
			best = between
			threshold = t
		}
	}
	return uint8(threshold)
}

// RemoveArtifacts binarizes img with Otsu's method, labels 8-connected dark
// components and paints white every component whose bounding box covers more
// than minAreaFraction of the page. It returns the cleaned grayscale page.
func RemoveArtifacts(img image.Image, minAreaFraction float64) (*image.Gray, Result) {
	gray := ToGray(img)
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()

	result := Result{Threshold: OtsuThreshold(gray)}
	if width == 0 || height == 0 {
		return gray, result
	}
	maxArea := minAreaFraction * float64(width*height)

	foreground := func(i int) bool {
		return gray.Pix[(i/width)*gray.Stride+i%width] <= result.Threshold
	}

	visited := make([]bool, width*height)
	var queue, component []int

	for start := range visited {
		if visited[start] || !foreground(start) {
			continue
		}
		result.Components++

		visited[start] = true
		queue = append(queue[:0], start)
		component = component[:0]
		minX, minY, maxX, maxY := width, height, -1, -1

		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			component = append(component, i)

			x, y := i%width, i/width
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if !visited[n] && foreground(n) {
						visited[n] = true
						queue = append(queue, n)
					}
				}
			}
		}

		boxArea := float64((maxX - minX + 1) * (maxY - minY + 1))
		if boxArea > maxArea {
			result.Removed++
			for _, i := range component {
				gray.Pix[(i/width)*gray.Stride+i%width] = 0xff
			}
		}
	}

	return gray, result
}

// Decode reads a PNG or JPEG page image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeFile reads a PNG or JPEG page image from path.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
