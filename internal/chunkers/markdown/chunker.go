// Package markdown provides the structure-aware chunker for extracted
// markdown documents.
//
// Documents are split page-first (on "## Page N" markers), then by
// heading structure, then merged and re-split against token bounds so
// every surviving chunk lands between the minimum and target sizes.
// Chunk identifiers derive from the document's content hash and the
// chunk's position, so unchanged input produces byte-identical chunks
// across runs.
package markdown

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits markdown documents into token-bounded, context-enriched
// chunks.
type Chunker struct {
	counter          driven.TokenCounter
	targetTokens     int
	overlapTokens    int
	minSectionTokens int
	minChunkTokens   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTargetTokens sets the per-chunk token target.
func WithTargetTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.targetTokens = n
		}
	}
}

// WithOverlapTokens sets the token overlap between consecutive
// sub-chunks of an oversized section.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// WithMinSectionTokens sets the merge threshold for small heading
// sections.
func WithMinSectionTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.minSectionTokens = n
		}
	}
}

// WithMinChunkTokens sets the filter threshold below which chunks are
// discarded.
func WithMinChunkTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minChunkTokens = n
		}
	}
}

// New creates a chunker with the given token counter and options.
func New(counter driven.TokenCounter, opts ...Option) *Chunker {
	c := &Chunker{
		counter:          counter,
		targetTokens:     domain.TargetChunkTokens,
		overlapTokens:    domain.ChunkOverlapTokens,
		minSectionTokens: domain.MinSectionTokens,
		minChunkTokens:   domain.MinChunkTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap beyond the target would make sub-splitting loop.
	if c.overlapTokens >= c.targetTokens {
		c.overlapTokens = c.targetTokens / 4
	}

	return c
}

// pageMarkerRe matches "## Page 1", "## page 12", etc., on its own line.
var pageMarkerRe = regexp.MustCompile(`(?mi)^##[ \t]+Page[ \t]+(\d+)[ \t]*$`)

// headingRe matches markdown headings up to 4 levels deep.
var headingRe = regexp.MustCompile(`^(#{1,4})[ \t]+(.+?)[ \t]*$`)

// blankRunRe collapses runs of 3+ newlines into a paragraph break.
var blankRunRe = regexp.MustCompile(`\n{3,}`)

// page is one page's worth of content.
type page struct {
	number  int
	content string
}

// segment is a candidate chunk: text plus the heading hierarchy active
// where it starts.
type segment struct {
	content   string
	hierarchy domain.SectionHierarchy
}

// ChunkDocument splits one canonical document into chunks. A document
// with no page markers and no headings yields a single segment covering
// the whole text, still subject to sub-splitting and filtering.
func (c *Chunker) ChunkDocument(doc *domain.SourceDocument) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	hash := doc.ContentHash
	if hash == "" {
		hash = domain.HashContent(doc.Content)
	}
	sourceFile := sourceFileName(doc)

	type candidate struct {
		content    string
		tokenCount int
		hierarchy  domain.SectionHierarchy
		pageNumber int
	}

	var candidates []candidate
	for _, pg := range splitPages(doc.Content) {
		for _, seg := range c.chunkPage(pg.content) {
			candidates = append(candidates, candidate{
				content:    seg.content,
				tokenCount: c.counter.CountTokens(seg.content),
				hierarchy:  seg.hierarchy,
				pageNumber: pg.number,
			})
		}
	}

	// Filter undersized candidates, then number the survivors so chunk
	// indices are contiguous from 0.
	var chunks []domain.Chunk
	for _, cand := range candidates {
		if cand.tokenCount < c.minChunkTokens {
			continue
		}

		idx := len(chunks)
		enriched := buildContextPrefix(sourceFile, cand.hierarchy, cand.pageNumber) + cand.content
		chunks = append(chunks, domain.Chunk{
			ChunkID:            domain.ChunkID(hash, idx),
			Content:            cand.content,
			EnrichedContent:    enriched,
			SourceFile:         sourceFile,
			SourcePath:         doc.Path,
			PageNumber:         cand.pageNumber,
			ChunkIndex:         idx,
			TokenCount:         cand.tokenCount,
			EnrichedTokenCount: c.counter.CountTokens(enriched),
			DocumentHash:       hash,
			SectionTitle:       cand.hierarchy.Title(),
			SectionHierarchy:   cand.hierarchy,
		})
	}

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}

	return chunks, nil
}

// chunkPage runs the structural split, small-section merging and
// oversize sub-splitting for one page's content.
func (c *Chunker) chunkPage(content string) []segment {
	content = strings.TrimSpace(blankRunRe.ReplaceAllString(content, "\n\n"))
	if content == "" {
		return nil
	}

	segments := c.mergeSmall(splitHeadings(content))

	var out []segment
	for _, seg := range segments {
		if c.counter.CountTokens(seg.content) <= c.targetTokens {
			out = append(out, seg)
			continue
		}
		for _, sub := range c.splitRecursive(seg.content, subSeparators) {
			out = append(out, segment{content: sub, hierarchy: seg.hierarchy})
		}
	}
	return out
}

// splitPages splits content on "## Page N" markers. Content without
// markers is a single page numbered 1. Page content runs from the end
// of its marker to the start of the next, with surrounding separator
// lines stripped; empty pages are dropped.
func splitPages(content string) []page {
	markers := pageMarkerRe.FindAllStringSubmatchIndex(content, -1)
	if len(markers) == 0 {
		return []page{{number: 1, content: content}}
	}

	var pages []page
	for i, m := range markers {
		number, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil {
			continue
		}

		start := m[1]
		end := len(content)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}

		text := strings.TrimSpace(content[start:end])
		text = strings.TrimSpace(strings.TrimPrefix(text, "---"))
		text = strings.TrimSpace(strings.TrimSuffix(text, "---"))
		if text == "" {
			continue
		}
		pages = append(pages, page{number: number, content: text})
	}
	return pages
}

// splitHeadings splits a page into segments at markdown headings (up to
// 4 levels), keeping the heading line in its segment. Each segment
// carries the heading hierarchy active at its start; a heading at level
// L replaces that level and clears deeper ones. Fenced code blocks are
// opaque to heading detection.
func splitHeadings(text string) []segment {
	var (
		segments  []segment
		current   []string
		hierarchy = domain.SectionHierarchy{}
		inFence   bool
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(current, "\n"))
		if content != "" {
			segments = append(segments, segment{content: content, hierarchy: hierarchy.Clone()})
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			current = append(current, line)
			continue
		}

		if !inFence {
			if m := headingRe.FindStringSubmatch(line); m != nil {
				flush()
				level := len(m[1])
				hierarchy[domain.HeaderKey(level)] = m[2]
				for deeper := level + 1; deeper <= 4; deeper++ {
					delete(hierarchy, domain.HeaderKey(deeper))
				}
				current = append(current, line)
				continue
			}
		}

		current = append(current, line)
	}
	flush()

	return segments
}

// mergeSmall walks the ordered segments, concatenating any segment
// below the minimum section size with its successor. Hierarchy maps are
// merged; on key conflict the differing values are joined rather than
// one discarded. The page's last segment may remain under the minimum;
// the final filter deals with it.
func (c *Chunker) mergeSmall(segments []segment) []segment {
	if len(segments) == 0 {
		return nil
	}

	var merged []segment
	current := segments[0]

	for _, next := range segments[1:] {
		if c.counter.CountTokens(current.content) >= c.minSectionTokens {
			merged = append(merged, current)
			current = next
			continue
		}

		combined := current.hierarchy.Clone()
		if combined == nil {
			combined = domain.SectionHierarchy{}
		}
		for key, value := range next.hierarchy {
			existing, ok := combined[key]
			switch {
			case !ok:
				combined[key] = value
			case existing != value:
				combined[key] = existing + " / " + value
			}
		}
		current = segment{
			content:   current.content + "\n\n" + next.content,
			hierarchy: combined,
		}
	}

	return append(merged, current)
}

// subSeparators orders split points from most to least semantic:
// paragraph breaks, line breaks, sentence breaks, word breaks, then
// character breaks as a last resort.
var subSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// splitRecursive splits oversized text into sub-chunks at or under the
// token target, with a token-sized overlap carried between consecutive
// sub-chunks. It prefers the earliest separator present in the text and
// recurses with the remaining separators for parts that are themselves
// oversized.
func (c *Chunker) splitRecursive(text string, separators []string) []string {
	if c.counter.CountTokens(text) <= c.targetTokens {
		return []string{text}
	}

	sep := ""
	rest := []string{}
	for i, s := range separators {
		if s == "" {
			sep = ""
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return c.hardCut(text)
	}

	parts := strings.Split(text, sep)

	var (
		out       []string
		window    []string
		winTokens int
	)

	flush := func() {
		if len(window) == 0 {
			return
		}
		out = append(out, strings.Join(window, sep))
	}

	for _, part := range parts {
		partTokens := c.counter.CountTokens(part)

		// A single part beyond the target splits at the next separator
		// level on its own.
		if partTokens > c.targetTokens {
			flush()
			window, winTokens = nil, 0
			out = append(out, c.splitRecursive(part, rest)...)
			continue
		}

		if winTokens+partTokens > c.targetTokens && len(window) > 0 {
			flush()
			window, winTokens = c.overlapTail(window)
		}
		window = append(window, part)
		winTokens += partTokens
	}
	flush()

	return out
}

// overlapTail keeps the trailing parts of a flushed window, up to the
// overlap budget, so the next sub-chunk starts with the previous one's
// tail.
func (c *Chunker) overlapTail(window []string) ([]string, int) {
	var (
		tail   []string
		tokens int
	)
	for i := len(window) - 1; i >= 0; i-- {
		partTokens := c.counter.CountTokens(window[i])
		if tokens+partTokens > c.overlapTokens {
			break
		}
		tail = append([]string{window[i]}, tail...)
		tokens += partTokens
	}
	return tail, tokens
}

// hardCut slices text into rune windows approximating the token target.
// Last resort for separator-free text such as a single enormous word.
func (c *Chunker) hardCut(text string) []string {
	runes := []rune(text)
	window := c.targetTokens * 4
	if window <= 0 {
		window = len(runes)
	}

	var out []string
	for start := 0; start < len(runes); start += window {
		end := start + window
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// sourceFileName derives the human-facing document name from the
// document's location in the extraction tree.
func sourceFileName(doc *domain.SourceDocument) string {
	name := doc.RelativePath
	if name == "" {
		name = path.Base(strings.ReplaceAll(doc.Path, "\\", "/"))
	}
	return strings.TrimSuffix(name, "_markdown.md")
}

// buildContextPrefix builds the context block prepended to chunk text
// before embedding. Embedding the document, section and page context
// alongside the content improves retrieval accuracy.
func buildContextPrefix(sourceFile string, hierarchy domain.SectionHierarchy, pageNumber int) string {
	docName := strings.ReplaceAll(sourceFile, "_", " ")
	for _, ext := range []string{".pdf", ".xlsx", ".msg"} {
		docName = strings.ReplaceAll(docName, ext, "")
	}

	parts := []string{"Document: " + docName}

	var sections []string
	for level := 1; level <= 4; level++ {
		if title, ok := hierarchy[domain.HeaderKey(level)]; ok {
			if cleaned := domain.CleanSectionTitle(title); cleaned != "" {
				sections = append(sections, cleaned)
			}
		}
	}
	if len(sections) > 0 {
		parts = append(parts, "Section: "+strings.Join(sections, " > "))
	}

	if pageNumber > 0 {
		parts = append(parts, fmt.Sprintf("Page: %d", pageNumber))
	}

	return strings.Join(parts, "\n") + "\n\n"
}
