package domain

import "time"

// PipelineRun records one execution of a pipeline stage for a project.
// Runs are bookkeeping only; they are not pipeline artifacts and are
// not touched by rollback.
type PipelineRun struct {
	// ID is the unique run identifier.
	ID string

	// Project is the project the stage ran against.
	Project string

	// Stage is the pipeline stage that ran.
	Stage Stage

	// StartedAt is when the run began.
	StartedAt time.Time

	// EndedAt is when the run finished.
	EndedAt time.Time

	// Success indicates whether the run completed without error.
	Success bool

	// Error contains the failure message if Success is false.
	Error string

	// ItemsProcessed counts the units handled (documents deduplicated,
	// chunks written, chunks embedded, files deleted).
	ItemsProcessed int
}
