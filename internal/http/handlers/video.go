package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/domain"
)

type createVideoRequest struct {
	ImagePath string `json:"imagePath"`
	S3Key     string `json:"s3Key"`
	Text      string `json:"text"`
}

type createVideoResponse struct {
	Success  bool   `json:"success"`
	VideoURL string `json:"videoUrl"`
	VideoID  string `json:"videoId"`
}

// CreateVideo composes the template video with the referenced cutout. The
// object key is preferred; the local path form exists for older clients.
func (a *App) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, r, domain.Wrap(domain.KindMissingSource, "invalid payload", err))
		return
	}

	src := domain.NewImageSource(req.S3Key, req.ImagePath)
	res, err := a.Pipeline.Render(r.Context(), src, req.Text)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, createVideoResponse{
		Success:  true,
		VideoURL: res.URL,
		VideoID:  res.VideoID,
	})
}
