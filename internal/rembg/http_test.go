package rembg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var colorOpaqueGray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

func TestHTTPSegmenterRoundTrip(t *testing.T) {
	mask := make([]byte, inferSize*inferSize)
	for i := range mask {
		mask[i] = 200
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req segmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, inferSize, req.Width)
		assert.Equal(t, inferSize, req.Height)
		assert.Len(t, req.Mean, 3)
		assert.Len(t, req.Std, 3)

		raw, err := base64.StdEncoding.DecodeString(req.Data)
		require.NoError(t, err)
		assert.Len(t, raw, 4*3*inferSize*inferSize)

		_ = json.NewEncoder(w).Encode(segmentResponse{
			Width:  inferSize,
			Height: inferSize,
			Mask:   base64.StdEncoding.EncodeToString(mask),
		})
	}))
	defer srv.Close()

	seg := NewHTTPSegmenter(srv.URL, 5*time.Second)
	src := solidImage(100, 50, colorOpaqueGray)

	got, err := seg.Segment(context.Background(), preprocess(src))
	require.NoError(t, err)
	assert.Equal(t, inferSize, got.Bounds().Dx())
	assert.Equal(t, uint8(200), got.GrayAt(10, 10).Y)
}

func TestHTTPSegmenterServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	seg := NewHTTPSegmenter(srv.URL, 5*time.Second)
	_, err := seg.Segment(context.Background(), preprocess(solidImage(8, 8, colorOpaqueGray)))
	require.Error(t, err)
}

func TestHTTPSegmenterRejectsShortMask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(segmentResponse{
			Width:  inferSize,
			Height: inferSize,
			Mask:   base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
		})
	}))
	defer srv.Close()

	seg := NewHTTPSegmenter(srv.URL, 5*time.Second)
	_, err := seg.Segment(context.Background(), preprocess(solidImage(8, 8, colorOpaqueGray)))
	require.Error(t, err)
}
