package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

// RawBatch pairs one uploaded table with its source identifier, usually the
// filename it was read from.
type RawBatch struct {
	SourceName string
	Table      *table.Table
}

// RunState holds the shared state across all pipeline steps. Each run starts
// from freshly materialized batches; nothing survives between runs.
type RunState struct {
	RunID   string
	Mapping Mapping
	Batches []RawBatch

	Normalized []*table.Table
	Tagged     []*table.Table
	Bronze     *table.Table
	Silver     *table.Table
	Gold       *table.Table

	Errors   []string
	Veracity float64
}

// Step is a single stage of the warehouse pipeline.
type Step interface {
	Execute(ctx context.Context, state *RunState) error
}

// NormalizeBatchesStep renames and coerces every batch into the canonical
// schema.
type NormalizeBatchesStep struct{}

func (s *NormalizeBatchesStep) Execute(ctx context.Context, state *RunState) error {
	state.Normalized = make([]*table.Table, len(state.Batches))
	for i, b := range state.Batches {
		state.Normalized[i] = NormalizeColumns(b.Table, state.Mapping)
	}
	return nil
}

// TagLineageStep stamps each normalized batch with its lineage metadata.
type TagLineageStep struct{}

func (s *TagLineageStep) Execute(ctx context.Context, state *RunState) error {
	state.Tagged = make([]*table.Table, len(state.Normalized))
	for i, t := range state.Normalized {
		state.Tagged[i] = TagLineage(t, state.Batches[i].SourceName)
	}
	return nil
}

// AssembleBronzeStep unions the tagged batches into the bronze table.
type AssembleBronzeStep struct{}

func (s *AssembleBronzeStep) Execute(ctx context.Context, state *RunState) error {
	state.Bronze = ConcatBronze(state.Tagged)
	return nil
}

// ValidateStep records the data-quality findings and the veracity score for
// the assembled bronze table. Findings never fail the step.
type ValidateStep struct {
	Validator *Validator
}

func (s *ValidateStep) Execute(ctx context.Context, state *RunState) error {
	state.Errors = s.Validator.BasicChecks(state.Bronze)
	state.Veracity = s.Validator.VeracityScore(state.Bronze)
	return nil
}

// SilverStep derives the monthly partner rollup from bronze.
type SilverStep struct{}

func (s *SilverStep) Execute(ctx context.Context, state *RunState) error {
	silver, err := ToSilver(state.Bronze)
	if err != nil {
		return err
	}
	state.Silver = silver
	return nil
}

// GoldStep derives the yearly partner rollup from silver.
type GoldStep struct{}

func (s *GoldStep) Execute(ctx context.Context, state *RunState) error {
	gold, err := ToGold(state.Silver)
	if err != nil {
		return err
	}
	state.Gold = gold
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially against the shared state.
func (p *Pipeline) Execute(ctx context.Context, state *RunState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewWarehousePipeline creates the standard six-step run:
// normalize -> tag -> assemble -> validate -> silver -> gold.
// Aggregation always runs; findings and the veracity score are diagnostic,
// and it is the caller's policy whether to withhold silver/gold output while
// findings exist.
func NewWarehousePipeline(v *Validator) *Pipeline {
	return NewPipeline(
		&NormalizeBatchesStep{},
		&TagLineageStep{},
		&AssembleBronzeStep{},
		&ValidateStep{Validator: v},
		&SilverStep{},
		&GoldStep{},
	)
}

// Run executes a full warehouse run over the given batches. It fails only on
// structural errors such as a mapping that leaves a required column missing;
// the returned state is valid up to the failed step either way, so callers
// can still show the assembled bronze table and the findings.
func Run(ctx context.Context, v *Validator, mapping Mapping, batches []RawBatch) (*RunState, error) {
	state := &RunState{
		RunID:   uuid.New().String(),
		Mapping: mapping,
		Batches: batches,
	}
	err := NewWarehousePipeline(v).Execute(ctx, state)
	return state, err
}
