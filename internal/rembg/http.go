package rembg

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"net/http"
	"time"
)

// HTTPSegmenter talks to a remote inference service that hosts the
// segmentation model. The model itself stays a black box; this client only
// ships the preprocessed tensor and reads the mask back.
type HTTPSegmenter struct {
	endpoint string
	cli      *http.Client
}

func NewHTTPSegmenter(endpoint string, timeout time.Duration) *HTTPSegmenter {
	return &HTTPSegmenter{
		endpoint: endpoint,
		cli:      &http.Client{Timeout: timeout},
	}
}

type segmentRequest struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Mean   []float32 `json:"mean"`
	Std    []float32 `json:"std"`
	Data   string    `json:"data"` // base64, float32 little-endian, CHW
}

type segmentResponse struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mask   string `json:"mask"` // base64, one byte per pixel, row-major
}

func (h *HTTPSegmenter) Segment(ctx context.Context, input Tensor) (*image.Gray, error) {
	raw := make([]byte, 4*len(input.Data))
	for i, v := range input.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	payload, err := json.Marshal(segmentRequest{
		Width:  input.Width,
		Height: input.Height,
		Mean:   normMean[:],
		Std:    normStd[:],
		Data:   base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal segment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build segment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call segmentation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segmentation service returned %s", resp.Status)
	}

	var body segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode segment response: %w", err)
	}
	maskBytes, err := base64.StdEncoding.DecodeString(body.Mask)
	if err != nil {
		return nil, fmt.Errorf("decode mask payload: %w", err)
	}
	if body.Width <= 0 || body.Height <= 0 || len(maskBytes) != body.Width*body.Height {
		return nil, fmt.Errorf("mask payload is %d bytes, want %d", len(maskBytes), body.Width*body.Height)
	}

	mask := image.NewGray(image.Rect(0, 0, body.Width, body.Height))
	copy(mask.Pix, maskBytes)
	return mask, nil
}

var _ Segmenter = (*HTTPSegmenter)(nil)
