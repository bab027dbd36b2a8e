// Package file provides the filesystem-backed artifact store. Each
// pipeline stage's outputs live under the project's output directory:
//
//	projects/<name>/output/
//	    document_inventory.json
//	    extraction_results/
//	    chunked_documents/
//	    embedded_documents/
//	    indexing_reports/
//
// Chunks and embedded chunks are one JSON file each, named by chunk ID,
// so a resumed run can cheaply discover what already exists.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore persists pipeline artifacts under a projects directory.
type ArtifactStore struct {
	projectsDir string
}

// NewArtifactStore creates an artifact store rooted at the projects
// directory.
func NewArtifactStore(projectsDir string) *ArtifactStore {
	return &ArtifactStore{projectsDir: projectsDir}
}

// outputDir returns the project's output directory.
func (s *ArtifactStore) outputDir(project string) string {
	return filepath.Join(s.projectsDir, project, "output")
}

// WriteInventory replaces the project's inventory.
func (s *ArtifactStore) WriteInventory(_ context.Context, project string, inv *domain.Inventory) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	return atomicWrite(filepath.Join(s.outputDir(project), domain.InventoryFile), data)
}

// ReadInventory loads the project's inventory.
func (s *ArtifactStore) ReadInventory(_ context.Context, project string) (*domain.Inventory, error) {
	path := filepath.Join(s.outputDir(project), domain.InventoryFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingArtifact, domain.InventoryFile)
		}
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	var inv domain.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	return &inv, nil
}

// WriteChunk persists one chunk, named by its chunk ID.
func (s *ArtifactStore) WriteChunk(_ context.Context, project string, chunk *domain.Chunk) error {
	data, err := json.MarshalIndent(chunk, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}
	path := filepath.Join(s.outputDir(project), domain.DirChunkedDocuments, chunk.ChunkID+".json")
	return atomicWrite(path, data)
}

// ListChunks loads every persisted chunk, ordered by chunk ID.
func (s *ArtifactStore) ListChunks(_ context.Context, project string) ([]domain.Chunk, error) {
	dir := filepath.Join(s.outputDir(project), domain.DirChunkedDocuments)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingArtifact, domain.DirChunkedDocuments)
		}
		return nil, fmt.Errorf("read chunk dir: %w", err)
	}

	var chunks []domain.Chunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read chunk %s: %w", entry.Name(), err)
		}
		var chunk domain.Chunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, fmt.Errorf("decode chunk %s: %w", entry.Name(), err)
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks in %s", domain.ErrMissingArtifact, domain.DirChunkedDocuments)
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkID < chunks[j].ChunkID })
	return chunks, nil
}

// WriteEmbeddedChunk persists one embedded chunk, named by its chunk ID.
func (s *ArtifactStore) WriteEmbeddedChunk(_ context.Context, project string, chunk *domain.EmbeddedChunk) error {
	data, err := json.MarshalIndent(chunk, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal embedded chunk: %w", err)
	}
	path := filepath.Join(s.outputDir(project), domain.DirEmbeddedDocuments, chunk.ChunkID+".json")
	return atomicWrite(path, data)
}

// ListEmbeddedIDs returns the chunk IDs with a persisted embedded
// chunk.
func (s *ArtifactStore) ListEmbeddedIDs(_ context.Context, project string) (map[string]bool, error) {
	dir := filepath.Join(s.outputDir(project), domain.DirEmbeddedDocuments)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("read embedded dir: %w", err)
	}

	ids := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids[strings.TrimSuffix(entry.Name(), ".json")] = true
	}
	return ids, nil
}

// WriteReport writes a stage report. An empty dir places the report at
// the output root, next to the inventory.
func (s *ArtifactStore) WriteReport(_ context.Context, project, dir, name, content string) error {
	return atomicWrite(filepath.Join(s.outputDir(project), dir, name), []byte(content))
}

// DeleteDir removes an artifact directory tree, returning the number of
// files deleted. A missing directory reports zero.
func (s *ArtifactStore) DeleteDir(ctx context.Context, project, dir string) (int, error) {
	path := filepath.Join(s.outputDir(project), dir)
	count, err := s.CountFiles(ctx, project, dir)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return 0, nil
		}
	}
	if err := os.RemoveAll(path); err != nil {
		return 0, fmt.Errorf("remove %s: %w", dir, err)
	}
	return count, nil
}

// DeleteInventory removes the project's inventory file.
func (s *ArtifactStore) DeleteInventory(_ context.Context, project string) (int, error) {
	path := filepath.Join(s.outputDir(project), domain.InventoryFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("remove inventory: %w", err)
	}
	return 1, nil
}

// CountFiles returns the number of files under an artifact directory.
func (s *ArtifactStore) CountFiles(_ context.Context, project, dir string) (int, error) {
	path := filepath.Join(s.outputDir(project), dir)

	count := 0
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", dir, err)
	}
	return count, nil
}

// ProjectExists reports whether the project directory exists.
func (s *ArtifactStore) ProjectExists(_ context.Context, project string) bool {
	info, err := os.Stat(filepath.Join(s.projectsDir, project))
	return err == nil && info.IsDir()
}

// atomicWrite writes data to path via a temp file and rename, creating
// parent directories as needed. Readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
