// Package downloader pulls auxiliary blobs, currently the cover
// art referenced by the catalog metadata.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vibedl/vibedl/processor"
)

// HTTP fetches image blobs with a rotated outbound identity.
type HTTP struct {
	client   *http.Client
	identity func() string
}

func NewHTTP(identity func() string) *HTTP {
	return &HTTP{
		client:   &http.Client{Timeout: 15 * time.Second},
		identity: identity,
	}
}

// Artwork fetches the cover image at url and runs it through the
// artwork processor. Callers treat any failure as best-effort:
// a track without a cover is still a track.
func (h *HTTP) Artwork(ctx context.Context, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if h.identity != nil {
		request.Header.Set("User-Agent", h.identity())
	}

	response, err := h.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch rejected: %s", response.Status)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return processor.Artwork{}.Do(data)
}
