package utils

import (
	"bytes"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

const (
	IDMaxLength = 30
	JPEGQuality = 95
)

// Sha512String hashes and encodes in hex the result
func Sha512String(s string) string {
	hash := sha512.New()
	hash.Write([]byte(s))
	return hex.EncodeToString(hash.Sum(nil))
}

func RandSalt(saltSize int) string {
	b := make([]byte, saltSize)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

// NewID returns an opaque identifier: the type prefix followed by the
// URL-safe base64 encoding (padding kept) of 16 random bytes, e.g.
// "MpX2...Q==".
func NewID(prefix byte) string {
	buf := make([]byte, 16)
	_, err := rand.Read(buf)
	if err != nil {
		panic(err)
	}
	return string(prefix) + base64.URLEncoding.EncodeToString(buf)
}

type ImageThumbConverted struct {
	ThumbSize int64
	NewX      int
	NewY      int
	OldX      int
	OldY      int
}

// CreateThumb scales the image down so it fits in size x size, preserving
// the aspect ratio. Images already smaller than that are re-encoded as is.
func CreateThumb(size uint, reader io.Reader, writer io.Writer) (result ImageThumbConverted, err error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return result, err
	}
	return WriteThumb(size, img, writer)
}

func WriteThumb(size uint, img image.Image, writer io.Writer) (result ImageThumbConverted, err error) {
	var newBuf bytes.Buffer
	newImage := resize.Thumbnail(size, size, img, resize.Lanczos3)
	if err = imaging.Encode(&newBuf, newImage, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return
	}
	newSize := newImage.Bounds().Size()
	result.NewX, result.NewY = newSize.X, newSize.Y
	oldSize := img.Bounds().Size()
	result.OldX, result.OldY = oldSize.X, oldSize.Y

	result.ThumbSize, err = io.Copy(writer, &newBuf)
	return
}
