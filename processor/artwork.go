// Package processor post-processes fetched assets before they
// get embedded or delivered.
package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

const (
	// covers above this size get dropped rather than embedded
	ArtworkSizeCeiling = 300 * 1024
	artworkMaxEdge     = 600
	artworkQuality     = 85
)

// Artwork normalizes cover images for tag embedding: decode,
// bound the longest edge, re-encode as JPEG. Images that still
// exceed the size ceiling afterwards are rejected so the tagger
// never bloats the audio file.
type Artwork struct{}

func (Artwork) Do(data []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("artwork does not decode: %w", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() > artworkMaxEdge || bounds.Dy() > artworkMaxEdge {
		decoded = resize.Thumbnail(artworkMaxEdge, artworkMaxEdge, decoded, resize.Lanczos3)
	}

	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, decoded, &jpeg.Options{Quality: artworkQuality}); err != nil {
		return nil, err
	}
	if buffer.Len() > ArtworkSizeCeiling {
		return nil, fmt.Errorf("artwork still %d bytes after processing, above the %d ceiling",
			buffer.Len(), ArtworkSizeCeiling)
	}
	return buffer.Bytes(), nil
}
