// Package corpus loads plain-text documents from a local folder.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/logger"
)

// Loader reads every file with the configured extension from a folder
// and exposes them as documents keyed by filename.
type Loader struct {
	dir string
	ext string
}

// New creates a corpus loader. ext must include the leading dot (".txt").
func New(dir, ext string) *Loader {
	return &Loader{dir: dir, ext: ext}
}

// Load reads all matching files in the folder, sorted by filename.
// A missing folder is not an error: it yields an empty corpus.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("corpus folder does not exist", zap.String("dir", l.dir))
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus dir %s: %w", l.dir, err)
	}

	docs := make([]domain.Document, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), l.ext) {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", path, err)
		}

		docs = append(docs, domain.NewDocument(entry.Name(), string(content)))
	}

	log.Info("corpus loaded", zap.String("dir", l.dir), zap.Int("documents", len(docs)))
	return docs, nil
}
