// Package filesystem reads extracted markdown documents from a
// project's extraction output tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// markdownPattern matches the extraction stage's output files at any
// depth under the extraction root.
const markdownPattern = "**/*_markdown.md"

// Source reads extracted documents from the local filesystem.
type Source struct {
	projectsDir string
}

// NewSource creates a document source rooted at the projects directory.
func NewSource(projectsDir string) *Source {
	return &Source{projectsDir: projectsDir}
}

// extractionRoot returns the extraction output directory for a project.
func (s *Source) extractionRoot(project string) string {
	return filepath.Join(s.projectsDir, project, "output", domain.DirExtractionResults)
}

// List returns every extracted markdown document for the project, with
// content loaded and hashed.
func (s *Source) List(ctx context.Context, project string) ([]domain.SourceDocument, error) {
	root := s.extractionRoot(project)

	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoDocuments, root)
		}
		return nil, fmt.Errorf("stat extraction root: %w", err)
	}

	matches, err := doublestar.Glob(os.DirFS(root), markdownPattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", markdownPattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no %s files under %s", domain.ErrNoDocuments, markdownPattern, root)
	}
	sort.Strings(matches)

	docs := make([]domain.SourceDocument, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(root, filepath.FromSlash(match))
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", match, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", match, err)
		}

		docs = append(docs, domain.SourceDocument{
			Path:         path,
			RelativePath: match,
			Content:      string(content),
			ContentHash:  domain.HashContent(string(content)),
			SizeBytes:    info.Size(),
			ModifiedTime: info.ModTime(),
		})
	}

	return docs, nil
}

// Read returns one document's content by path. The path must resolve
// inside the project's extraction tree.
func (s *Source) Read(_ context.Context, project, path string) (string, error) {
	root, err := filepath.Abs(s.extractionRoot(project))
	if err != nil {
		return "", fmt.Errorf("resolve extraction root: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if rel, err := filepath.Rel(root, abs); err != nil || rel == ".." || filepath.IsAbs(rel) ||
		(len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the extraction tree", domain.ErrInvalidInput, path)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(content), nil
}
