package bundletool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/appsize/internal/logging"
)

// DefaultBaseURL is the GitHub releases root of bundletool.
const DefaultBaseURL = "https://github.com/google/bundletool/releases/download"

// ErrDownload is returned when the bundletool jar cannot be fetched.
var ErrDownload = errors.New("bundletool download failed")

// StatusError records a non-2xx download response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d url=%s", e.StatusCode, e.URL)
}

// Downloader fetches bundletool release jars.
type Downloader struct {
	Client  *http.Client
	BaseURL string
}

// NewDownloader returns a Downloader for the GitHub releases with a bounded
// overall timeout.
func NewDownloader() *Downloader {
	return &Downloader{
		Client:  &http.Client{Timeout: 2 * time.Minute},
		BaseURL: DefaultBaseURL,
	}
}

// URL returns the jar location of a release.
func (d *Downloader) URL(version string) string {
	base := strings.TrimRight(d.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%s/bundletool-all-%s.jar", base, version, version)
}

// Download writes the jar of version to dest. The file appears atomically;
// a failed download leaves nothing behind. Every failure matches ErrDownload.
func (d *Downloader) Download(ctx context.Context, version, dest string) error {
	url := d.URL(version)
	log := logging.WithFields(ctx, "version", version, "url", url)
	log.Info("downloading bundletool")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %w", ErrDownload, &StatusError{StatusCode: resp.StatusCode, URL: url})
	}

	if err := writeFileAtomic(dest, resp.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	log.Debug("bundletool downloaded", "path", dest)
	return nil
}

func writeFileAtomic(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}
