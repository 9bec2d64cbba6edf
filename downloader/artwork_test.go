package downloader

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coverBytes(t *testing.T) []byte {
	t.Helper()
	var buffer bytes.Buffer
	canvas := image.NewRGBA(image.Rect(0, 0, 64, 64))
	require.NoError(t, jpeg.Encode(&buffer, canvas, nil))
	return buffer.Bytes()
}

func TestArtwork(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		agent = request.Header.Get("User-Agent")
		writer.Write(coverBytes(t))
	}))
	defer server.Close()

	h := NewHTTP(func() string { return "test-agent/1.0" })
	h.client = server.Client()
	data, err := h.Artwork(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "test-agent/1.0", agent)

	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestArtworkRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	h := NewHTTP(nil)
	h.client = server.Client()
	_, err := h.Artwork(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestArtworkBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Write([]byte("not an image"))
	}))
	defer server.Close()

	h := NewHTTP(nil)
	h.client = server.Client()
	_, err := h.Artwork(context.Background(), server.URL)
	assert.Error(t, err)
}
