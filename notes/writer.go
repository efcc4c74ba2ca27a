package notes

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"tweet-fleet/config"
	"tweet-fleet/models"

	"github.com/google/go-github/v66/github"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// ErrSaveFailed wraps any rejection from the GitHub API.
var ErrSaveFailed = errors.New("saving note failed")

// Writer commits notes as timestamp-named markdown files.
type Writer struct {
	client    *github.Client
	repo      string
	owner     string
	name      string
	directory string
	now       func() time.Time
}

// NewWriter creates a Writer. An unconfigured writer is valid; Save reports
// the missing settings.
func NewWriter(cfg config.GitHubConfig) (*Writer, error) {
	w := &Writer{
		repo:      cfg.Repo,
		directory: strings.Trim(strings.ReplaceAll(cfg.DirectoryPath, "\\", "/"), "/"),
		now:       time.Now,
	}
	if owner, name, ok := strings.Cut(cfg.Repo, "/"); ok {
		w.owner, w.name = owner, name
	}

	if cfg.Token != "" {
		w.client = github.NewClient(nil).WithAuthToken(cfg.Token)
		if cfg.APIURL != "" {
			base, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/")
			if err != nil {
				return nil, fmt.Errorf("parsing GITHUB_API_URL: %w", err)
			}
			w.client.BaseURL = base
		}
	}
	return w, nil
}

// Save writes content to <directory>/<YYYYMMDDhhmmss>.md.
func (w *Writer) Save(ctx context.Context, content string) (*models.NoteResult, error) {
	if w.client == nil {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN is required", config.ErrMissingConfig)
	}
	if w.owner == "" || w.name == "" {
		return nil, fmt.Errorf("%w: GITHUB_REPO must be owner/name", config.ErrMissingConfig)
	}

	now := w.now()
	stamp := now.Format(time.RFC3339)
	filePath := now.Format("20060102150405") + ".md"
	if w.directory != "" {
		filePath = path.Join(w.directory, filePath)
	}

	body := fmt.Sprintf("---\ndate: %s\n---\n\n%s\n", stamp, content)
	_, _, err := w.client.Repositories.CreateFile(ctx, w.owner, w.name, filePath, &github.RepositoryContentFileOptions{
		Message: github.String("Create new note: " + stamp),
		Content: []byte(body),
	})
	if err != nil {
		logger.Error("Failed to save note", zap.String("repo", w.repo), zap.String("path", filePath), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	logger.Info("Note saved", zap.String("repo", w.repo), zap.String("path", filePath))
	return &models.NoteResult{
		Success: true,
		Message: "Note saved",
		Repo:    w.repo,
		Path:    filePath,
	}, nil
}

// SetNow overrides the time function (for testing).
func (w *Writer) SetNow(fn func() time.Time) {
	w.now = fn
}
