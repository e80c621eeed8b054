// Package imagemeta extracts metadata from uploaded photos.
package imagemeta

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureTime reads the EXIF original-capture timestamp from a JPEG.
// Returns false for photos without EXIF data (screenshots, WhatsApp
// re-encodes strip it) so callers can fall back to the upload time.
func CaptureTime(image []byte) (time.Time, bool) {
	meta, err := exif.Decode(bytes.NewReader(image))
	if err != nil {
		return time.Time{}, false
	}
	taken, err := meta.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return taken, true
}
