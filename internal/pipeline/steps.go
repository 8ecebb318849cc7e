package pipeline

import (
	"context"
	"fmt"
	"time"

	"helloasso-export/internal/domain"
	"helloasso-export/internal/export"
	"helloasso-export/internal/helloasso"
	"helloasso-export/internal/logger"
	"helloasso-export/internal/secrets"
)

// Step is a single stage of the export pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State holds the data shared across pipeline steps. Each step reads the
// fields of the steps before it and fills its own.
type State struct {
	Period    domain.Period
	Bundle    *secrets.Bundle
	Payments  []helloasso.Payment
	Rows      []export.Row
	Document  []byte
	ObjectKey string
	URL       string
	ExpiresAt time.Time
}

// resolveCredentialsStep loads the four HelloAsso secrets.
type resolveCredentialsStep struct {
	creds CredentialSource
}

func (s *resolveCredentialsStep) Execute(ctx context.Context, state *State) error {
	bundle, err := s.creds.Bundle(ctx)
	if err != nil {
		return err
	}
	state.Bundle = bundle
	return nil
}

// fetchPaymentsStep retrieves every payment of the period.
type fetchPaymentsStep struct {
	newPayments PaymentsFactory
}

func (s *fetchPaymentsStep) Execute(ctx context.Context, state *State) error {
	payments, err := s.newPayments(state.Bundle).FetchAll(ctx, state.Period)
	if err != nil {
		return err
	}
	state.Payments = payments
	log := logger.FromContext(ctx)
	log.Info().Int("payments", len(payments)).Msg("Payments fetched")
	return nil
}

// transformStep maps payments to export rows.
type transformStep struct{}

func (s *transformStep) Execute(ctx context.Context, state *State) error {
	rows, err := export.Transform(state.Payments)
	if err != nil {
		return err
	}
	state.Rows = rows
	return nil
}

// renderCSVStep serializes the rows into the CSV document.
type renderCSVStep struct {
	withBOM bool
}

func (s *renderCSVStep) Execute(ctx context.Context, state *State) error {
	doc, err := export.WriteCSV(state.Rows, s.withBOM)
	if err != nil {
		return err
	}
	state.Document = doc
	return nil
}

// storeArtifactStep uploads the document and signs its retrieval link.
type storeArtifactStep struct {
	store ArtifactStore
}

func (s *storeArtifactStep) Execute(ctx context.Context, state *State) error {
	key, err := s.store.Put(ctx, state.Period, state.Document)
	if err != nil {
		return err
	}
	state.ObjectKey = key

	url, expires, err := s.store.SignedURL(key)
	if err != nil {
		return err
	}
	state.URL = url
	state.ExpiresAt = expires
	return nil
}

// Pipeline executes a sequence of steps in order, stopping at the first
// failure.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline from the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially against the shared state.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
