package detector

import "errors"

var (
	// ErrUnsupportedImage indicates the photo could not be decoded.
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
	// ErrEngine indicates the detection engine rejected the request.
	ErrEngine = errors.New("detection engine error")
)
