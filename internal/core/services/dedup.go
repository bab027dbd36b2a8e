package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
	"github.com/prism-labs/prism-cli/internal/core/ports/driving"
	"github.com/prism-labs/prism-cli/internal/logger"
)

// Ensure Deduplicator implements the interface.
var _ driving.Deduplicator = (*Deduplicator)(nil)

// DedupReportName is the deduplication report filename, written
// alongside the inventory.
const DedupReportName = "deduplication_report.md"

// Deduplicator groups a project's extracted documents by content
// fingerprint and rebuilds the inventory.
type Deduplicator struct {
	source    driven.DocumentSource
	artifacts driven.ArtifactStore
	runs      driven.RunStore
}

// NewDeduplicator creates a deduplicator. runs may be nil to disable
// run-history recording.
func NewDeduplicator(
	source driven.DocumentSource,
	artifacts driven.ArtifactStore,
	runs driven.RunStore,
) *Deduplicator {
	return &Deduplicator{
		source:    source,
		artifacts: artifacts,
		runs:      runs,
	}
}

// Deduplicate rebuilds the project's inventory from the extraction
// output. Every document is fingerprinted by content hash; one
// canonical copy is chosen per hash group and the rest are recorded as
// duplicates. The inventory is rebuilt wholesale, so re-running after
// new extractions always reflects the current document set.
func (d *Deduplicator) Deduplicate(ctx context.Context, project string) (summary *driving.DedupSummary, err error) {
	startedAt := time.Now()
	defer func() {
		items := 0
		if summary != nil {
			items = summary.TotalDocuments
		}
		recordRun(ctx, d.runs, project, domain.StageExtraction, startedAt, items, err)
	}()

	docs, err := d.source.List(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrNoDocuments
	}

	logger.Info("Analysing %d documents for duplicates", len(docs))

	// Group by content hash.
	groups := make(map[string][]domain.SourceDocument)
	for _, doc := range docs {
		hash := doc.ContentHash
		if hash == "" {
			hash = domain.HashContent(doc.Content)
		}
		groups[hash] = append(groups[hash], doc)
	}

	entries := make([]domain.InventoryEntry, 0, len(groups))
	duplicateCopies := 0
	for hash, group := range groups {
		canonical := chooseCanonical(group)

		entry := domain.InventoryEntry{
			ContentHash:  hash,
			Path:         canonical.Path,
			RelativePath: canonical.RelativePath,
			SizeBytes:    canonical.SizeBytes,
			ModifiedTime: canonical.ModifiedTime,
		}

		for _, doc := range group {
			if doc.Path == canonical.Path {
				continue
			}
			entry.DuplicatePaths = append(entry.DuplicatePaths, doc.RelativePath)
		}
		sort.Strings(entry.DuplicatePaths)
		entry.DuplicateCount = len(entry.DuplicatePaths)
		entry.HasDuplicates = entry.DuplicateCount > 0
		duplicateCopies += entry.DuplicateCount

		entries = append(entries, entry)
	}

	// Map iteration order is random; sort so the inventory is
	// deterministic for unchanged input.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})

	inv := &domain.Inventory{
		GeneratedAt:    time.Now(),
		TotalDocuments: len(entries),
		Documents:      entries,
	}

	if err := d.artifacts.WriteInventory(ctx, project, inv); err != nil {
		return nil, fmt.Errorf("write inventory: %w", err)
	}

	report := renderDedupReport(inv, len(docs))
	if err := d.artifacts.WriteReport(ctx, project, "", DedupReportName, report); err != nil {
		logger.Debug("Failed to write deduplication report: %v", err)
	}

	summary = &driving.DedupSummary{
		TotalDocuments:  len(docs),
		UniqueDocuments: len(entries),
		DuplicateCopies: duplicateCopies,
	}

	logger.Info("Deduplication complete: %d documents, %d unique, %d duplicate copies",
		summary.TotalDocuments, summary.UniqueDocuments, summary.DuplicateCopies)

	return summary, nil
}

// chooseCanonical picks the canonical copy of a duplicate group: the
// most recently modified file, with the lexicographically smaller path
// breaking ties so the choice is stable across runs.
func chooseCanonical(group []domain.SourceDocument) domain.SourceDocument {
	canonical := group[0]
	for _, doc := range group[1:] {
		switch {
		case doc.ModifiedTime.After(canonical.ModifiedTime):
			canonical = doc
		case doc.ModifiedTime.Equal(canonical.ModifiedTime) && doc.Path < canonical.Path:
			canonical = doc
		}
	}
	return canonical
}

// renderDedupReport renders the human-readable deduplication report.
func renderDedupReport(inv *domain.Inventory, totalFiles int) string {
	var b strings.Builder

	b.WriteString("# Deduplication Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", inv.GeneratedAt.Format(time.RFC3339))
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total files analysed: %d\n", totalFiles)
	fmt.Fprintf(&b, "- Unique documents: %d\n", inv.TotalDocuments)
	fmt.Fprintf(&b, "- Duplicate copies: %d\n", totalFiles-inv.TotalDocuments)

	var withDuplicates []domain.InventoryEntry
	for _, entry := range inv.Documents {
		if entry.HasDuplicates {
			withDuplicates = append(withDuplicates, entry)
		}
	}

	if len(withDuplicates) > 0 {
		b.WriteString("\n## Duplicate Groups\n")
		for _, entry := range withDuplicates {
			fmt.Fprintf(&b, "\n### %s\n\n", entry.RelativePath)
			fmt.Fprintf(&b, "- Content hash: `%s`\n", entry.ContentHash)
			fmt.Fprintf(&b, "- Canonical copy: %s\n", entry.RelativePath)
			b.WriteString("- Duplicates:\n")
			for _, dup := range entry.DuplicatePaths {
				fmt.Fprintf(&b, "  - %s\n", dup)
			}
		}
	}

	return b.String()
}
