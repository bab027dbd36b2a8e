package domain

// Artifact directory names within a project's output tree. The file
// artifact store and the rollback handlers share these; the layout is
// part of the pipeline's persisted contract.
const (
	DirExtractionResults = "extraction_results"
	DirChunkedDocuments  = "chunked_documents"
	DirEmbeddedDocuments = "embedded_documents"
	DirIndexingReports   = "indexing_reports"

	// InventoryFile is the deduplication output, one per project.
	InventoryFile = "document_inventory.json"
)

// ProjectStatus is the small persisted status record for a project.
// The pipeline sets these flags as external resources are created;
// rollback clears them as resources are deleted.
type ProjectStatus struct {
	// IsIndexed is true once embedded chunks have been uploaded to the
	// search index.
	IsIndexed bool `toml:"is_indexed"`

	// HasAgent is true once a knowledge agent exists for the project.
	HasAgent bool `toml:"has_agent"`

	// AgentName is the knowledge agent's resource name, when one exists.
	AgentName string `toml:"agent_name,omitempty"`
}

// IndexName derives the search index name for a project. Resource
// names are deterministic so rollback can delete by name without
// extra bookkeeping.
func IndexName(project string) string {
	return "prism-" + project + "-index"
}

// KnowledgeSourceName derives the knowledge source name for a project.
func KnowledgeSourceName(project string) string {
	return IndexName(project) + "-source"
}

// KnowledgeAgentName derives the knowledge agent name for a project.
func KnowledgeAgentName(project string) string {
	return IndexName(project) + "-agent"
}
