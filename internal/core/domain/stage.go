package domain

import "fmt"

// Stage identifies one step of the document-derivation pipeline.
type Stage string

// Pipeline stages, in dependency order. Later stages consume earlier
// stages' outputs.
const (
	StageExtraction Stage = "extraction"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
	StageIndex      Stage = "index"
	StageSource     Stage = "source"
	StageAgent      Stage = "agent"
)

// Stages lists every valid stage in pipeline order.
var Stages = []Stage{
	StageExtraction,
	StageChunking,
	StageEmbedding,
	StageIndex,
	StageSource,
	StageAgent,
}

// cascade maps each stage to the stages derived from it, transitively
// closed. Rolling back a stage invalidates everything in its cascade.
// The graph is fixed; it never changes at runtime.
var cascade = map[Stage][]Stage{
	StageExtraction: {StageChunking, StageEmbedding, StageIndex, StageSource, StageAgent},
	StageChunking:   {StageEmbedding, StageIndex, StageSource, StageAgent},
	StageEmbedding:  {StageIndex, StageSource, StageAgent},
	StageIndex:      {StageSource, StageAgent},
	StageSource:     {StageAgent},
	StageAgent:      {},
}

// ParseStage validates a stage name.
func ParseStage(name string) (Stage, error) {
	s := Stage(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q (valid: %v)", ErrUnknownStage, name, Stages)
	}
	return s, nil
}

// Valid reports whether the stage is one of the pipeline's fixed set.
func (s Stage) Valid() bool {
	_, ok := cascade[s]
	return ok
}

// Dependents returns the stages that depend on s, in pipeline order.
// The returned slice is a copy.
func (s Stage) Dependents() []Stage {
	deps := cascade[s]
	out := make([]Stage, len(deps))
	copy(out, deps)
	return out
}

// RollbackStages resolves the set of stages a rollback of s operates
// on: {s} plus its cascade when cascading, de-duplicated preserving
// first-seen order, then reversed so the most-dependent stage is torn
// down first. A dependent resource is never left referencing a deleted
// dependency mid-operation.
func RollbackStages(s Stage, cascadeOn bool) []Stage {
	stages := []Stage{s}
	if cascadeOn {
		stages = append(stages, cascade[s]...)
	}

	seen := make(map[Stage]bool, len(stages))
	unique := make([]Stage, 0, len(stages))
	for _, st := range stages {
		if !seen[st] {
			seen[st] = true
			unique = append(unique, st)
		}
	}

	// Reverse: downstream first.
	for i, j := 0, len(unique)-1; i < j; i, j = i+1, j-1 {
		unique[i], unique[j] = unique[j], unique[i]
	}
	return unique
}
