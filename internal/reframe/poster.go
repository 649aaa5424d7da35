package reframe

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// PosterQuality is the JPEG quality used for poster thumbnails
const PosterQuality = 90

// Poster applies g to a still frame in-process
func Poster(img image.Image, g Geometry) (image.Image, error) {
	b := img.Bounds()
	if b.Dx() != g.Source.W || b.Dy() != g.Source.H {
		return nil, fmt.Errorf("frame is %dx%d, geometry expects %dx%d", b.Dx(), b.Dy(), g.Source.W, g.Source.H)
	}
	if g.FinalCrop.W <= 0 || g.FinalCrop.H <= 0 {
		return nil, fmt.Errorf("empty reframe geometry")
	}

	cropped := crop(img, g.InitialCrop)
	zoomed := resize.Resize(uint(g.Zoomed.W), uint(g.Zoomed.H), cropped, resize.Bilinear)
	return crop(zoomed, g.FinalCrop), nil
}

// LoadFrame decodes a PNG or JPEG still
func LoadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// SavePoster encodes img as JPEG at path
func SavePoster(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: PosterQuality}); err != nil {
		f.Close()
		return fmt.Errorf("encode poster: %w", err)
	}
	return f.Close()
}

// crop copies r out of img into a new image anchored at the origin
func crop(img image.Image, r Rect) image.Image {
	b := img.Bounds()
	src := image.Rect(b.Min.X+r.X, b.Min.Y+r.Y, b.Min.X+r.X+r.W, b.Min.Y+r.Y+r.H)
	dst := image.NewRGBA(image.Rect(0, 0, r.W, r.H))
	draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	return dst
}
