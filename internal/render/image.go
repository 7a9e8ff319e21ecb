package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// SavePNG encodes img into a new file at path.
func SavePNG(path string, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	if err = png.Encode(out, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
