package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"hunyuan3d/internal/domain"
)

// fetchToTemp streams imageURL into a new temporary file and returns its
// path. On error no file is left behind.
func (a *Adapter) fetchToTemp(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", domain.NewValidationError("image_url", "image_url is not a valid URL")
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &domain.DownloadError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.DownloadError{URL: imageURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	ext := imageExtension(resp.Header.Get("Content-Type"), imageURL)
	tmp, err := os.CreateTemp(a.tempDir, "image-*"+ext)
	if err != nil {
		return "", fmt.Errorf("ingest: create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, a.maxImageBytes+1))
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		return "", fmt.Errorf("ingest: close temp image: %w", closeErr)
	}
	if err != nil {
		return "", &domain.DownloadError{URL: imageURL, Err: err}
	}
	if n > a.maxImageBytes {
		return "", domain.NewValidationError("image_url", fmt.Sprintf("image exceeds %d bytes", a.maxImageBytes))
	}

	a.logger.Debug().
		Str("url", imageURL).
		Str("path", tmpPath).
		Int64("bytes", n).
		Msg("ingest: image fetched")
	keep = true
	return tmpPath, nil
}

// imageExtension infers a file suffix from an image/* content type, then from
// the URL path, and falls back to ".img".
func imageExtension(contentType, rawURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if sub, ok := strings.CutPrefix(strings.ToLower(mediaType), "image/"); ok && sub != "" {
			switch sub {
			case "jpeg":
				return ".jpg"
			case "svg+xml":
				return ".svg"
			default:
				return "." + sub
			}
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && ext != "." {
			return ext
		}
	}
	return ".img"
}
