package processing

import (
	"mediacat/storage"
	"mediacat/utils"
	"os"
	"strconv"

	"github.com/disintegration/imaging"
)

// ThumbnailSizes is the ladder of pre-generated derivatives, smallest first
var ThumbnailSizes = []int{150, 200, 300, 400, 500}

func ThumbnailName(size int) string {
	return "sized" + strconv.Itoa(size) + ".jpg"
}

// PickThumbnailSize returns the smallest derivative at least as large as
// size. Bigger requests get the largest one.
func PickThumbnailSize(size int) int {
	for _, s := range ThumbnailSizes {
		if s >= size {
			return s
		}
	}
	return ThumbnailSizes[len(ThumbnailSizes)-1]
}

// generateThumbs writes the whole ladder for the image at src into local
func generateThumbs(src string, local storage.LocalArea) error {
	img, err := imaging.Open(src)
	if err != nil {
		return Error.Wrap(err)
	}
	for _, size := range ThumbnailSizes {
		path, err := local.GetPath(ThumbnailName(size))
		if err != nil {
			return Error.Wrap(err)
		}
		f, err := os.Create(path)
		if err != nil {
			return Error.Wrap(err)
		}
		_, err = utils.WriteThumb(uint(size), img, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return Error.Wrap(err)
		}
	}
	return nil
}
