package mimicmotion

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultHubURL is the base URL checkpoint files are fetched from
const DefaultHubURL = "https://huggingface.co"

// Hub fetches checkpoint files from a model registry.  It implements the
// ensure-local-file operation: a file already present on disk is never
// fetched again
type Hub struct {
	// BaseURL of the registry
	BaseURL string
	// Client used for downloads
	Client *http.Client
}

// NewHub returns a Hub using the default registry
func NewHub() *Hub {
	return &Hub{
		BaseURL: DefaultHubURL,
		Client:  http.DefaultClient,
	}
}

// EnsureFile makes sure the named file of the repository exists under
// destDir, downloading it if absent, and returns its local path
func (h *Hub) EnsureFile(repo, file, destDir string) (string, error) {

	localPath := filepath.Join(destDir, file)

	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	url := fmt.Sprintf("%s/%s/resolve/main/%s", h.BaseURL, repo, file)

	log.Printf("downloading %s to: %s", file, localPath)

	resp, err := h.Client.Get(url)

	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status %s", url, resp.Status)
	}

	// download to a temporary file first so a partial fetch never passes a
	// later existence check
	tmp, err := os.CreateTemp(destDir, file+".partial-*")

	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(tmp, resp.Body)

	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to download %s: %w", file, err)
	}

	if err := os.Rename(tmp.Name(), localPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move downloaded file: %w", err)
	}

	return localPath, nil
}
