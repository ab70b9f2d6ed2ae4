package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

// ErrDecode marks inbound frames that are not a valid image. The
// pipeline skips the frame and emits nothing.
var ErrDecode = errors.New("frame decode failed")

// ErrEncode marks annotated frames that could not be re-encoded. The
// pipeline emits nothing for that frame.
var ErrEncode = errors.New("frame encode failed")

// jpegQuality balances bandwidth against annotation legibility.
const jpegQuality = 80

// Decode parses an encoded frame (JPEG, PNG or GIF).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// EncodeJPEG re-encodes a frame for broadcast.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
