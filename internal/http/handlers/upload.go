package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"server/internal/domain"
	"server/internal/rembg"
)

type uploadResponse struct {
	Success   bool   `json:"success"`
	ImagePath string `json:"imagePath"`
	S3Key     string `json:"s3Key"`
	ImageURL  string `json:"imageUrl"`
}

// Upload stores a client-side processed image and returns its locator. The
// client has already run background removal; the bytes are stored as-is.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	data, filename, err := a.readImageField(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	res, err := a.Pipeline.Ingest(r.Context(), data, ext, contentTypeForExt(ext))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, uploadResponse{
		Success:   true,
		ImagePath: res.LocalPath,
		S3Key:     res.Key,
		ImageURL:  res.URL,
	})
}

type uploadURLRequest struct {
	URL string `json:"url"`
}

// UploadURL fetches a remote image, runs background removal server-side
// (remote fetches bypass the in-browser model) and stores the cutout.
func (a *App) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		a.fail(w, r, domain.E(domain.KindInvalidImage, "a url field is required"))
		return
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		a.fail(w, r, domain.Ef(domain.KindInvalidImage, "unsupported url %q", req.URL))
		return
	}

	fetch, err := http.NewRequestWithContext(r.Context(), http.MethodGet, req.URL, nil)
	if err != nil {
		a.fail(w, r, domain.Wrap(domain.KindInvalidImage, "build fetch request", err))
		return
	}
	resp, err := a.Fetch.Do(fetch)
	if err != nil {
		a.fail(w, r, domain.Wrap(domain.KindInvalidImage, "fetch remote image", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.fail(w, r, domain.Ef(domain.KindInvalidImage, "remote host returned %s", resp.Status))
		return
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, a.MaxUploadBytes))
	if err != nil {
		a.fail(w, r, domain.Wrap(domain.KindInvalidImage, "read remote image", err))
		return
	}

	img, err := rembg.DecodeImage(raw)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	cut, err := a.Removal.Remove(r.Context(), img)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := rembg.EncodePNG(cut)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Pipeline.Ingest(r.Context(), data, ".png", "image/png")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, uploadResponse{
		Success:   true,
		ImagePath: res.LocalPath,
		S3Key:     res.Key,
		ImageURL:  res.URL,
	})
}

// RemoveBackground runs the removal stage on an uploaded image and returns
// the cutout PNG directly, for clients without local inference.
func (a *App) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	data, _, err := a.readImageField(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	img, err := rembg.DecodeImage(data)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	cut, err := a.Removal.Remove(r.Context(), img)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := rembg.EncodePNG(cut)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// readImageField pulls the multipart "image" field.
func (a *App) readImageField(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		return nil, "", domain.Wrap(domain.KindInvalidImage, "parse multipart form", err)
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", domain.Wrap(domain.KindInvalidImage, "an image field is required", err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(io.LimitReader(file, a.MaxUploadBytes))
	if err != nil {
		return nil, "", domain.Wrap(domain.KindInvalidImage, "read image field", err)
	}
	if len(data) == 0 {
		return nil, "", domain.E(domain.KindInvalidImage, "empty image payload")
	}
	return data, header.Filename, nil
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
