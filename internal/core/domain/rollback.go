package domain

// RollbackResult is the outcome of rolling back a stage. The same type
// describes a single stage handler's outcome and the aggregate of a
// cascading rollback.
type RollbackResult struct {
	// Success is true only when every stage handler succeeded.
	Success bool `json:"success"`

	// Stage is the stage the rollback was requested for.
	Stage Stage `json:"stage"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// DeletedFileCount is the total number of artifact files removed.
	DeletedFileCount int `json:"deleted_files"`

	// DeletedResourceStages lists the stages whose artifacts were
	// removed, in teardown order.
	DeletedResourceStages []Stage `json:"deleted_resources"`

	// Errors holds per-stage failure messages. A partial rollback
	// reports what was deleted alongside what failed.
	Errors []string `json:"errors,omitempty"`
}

// RollbackPreview describes what a rollback would remove, without
// removing anything.
type RollbackPreview struct {
	// Stages is the resolved stage set, in first-seen (not teardown)
	// order.
	Stages []Stage `json:"stages"`

	// LocalFiles maps artifact directory names to the number of files
	// a rollback would delete. Directories with nothing to delete are
	// omitted.
	LocalFiles map[string]int `json:"local_files"`

	// ExternalResources names the managed-service resources a rollback
	// would delete.
	ExternalResources []string `json:"external_resources"`

	// Warnings flags high-impact stages.
	Warnings []string `json:"warnings"`
}
