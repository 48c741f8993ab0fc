// Package usecases - evaluate.go runs the retrieve, generate, assess refinement loop.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

const (
	// DirectBudget returns the first generated clause as is.
	DirectBudget = 1
	// RefiningBudget resamples until a Low or Medium clause appears.
	RefiningBudget = 10
)

// EvaluateOptions tunes the refinement loop.
type EvaluateOptions struct {
	TopK          int
	AttemptBudget int
	Logger        *log.Logger
}

// EvaluateUseCase drafts a clause for an intent. Retrieval happens once per
// request; generation and assessment repeat up to the attempt budget.
// All per-request state lives on the stack, so one instance serves
// concurrent requests.
type EvaluateUseCase struct {
	retriever  ports.Retriever
	generator  ports.ClauseGenerator
	assessor   ports.RiskAssessor
	classifier ports.Classifier
	topK       int
	budget     int
	logger     *log.Logger
}

// NewEvaluateUseCase creates an EvaluateUseCase with injected collaborators.
func NewEvaluateUseCase(
	retriever ports.Retriever,
	generator ports.ClauseGenerator,
	assessor ports.RiskAssessor,
	classifier ports.Classifier,
	opts EvaluateOptions,
) *EvaluateUseCase {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.AttemptBudget <= 0 {
		opts.AttemptBudget = RefiningBudget
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &EvaluateUseCase{
		retriever:  retriever,
		generator:  generator,
		assessor:   assessor,
		classifier: classifier,
		topK:       opts.TopK,
		budget:     opts.AttemptBudget,
		logger:     opts.Logger,
	}
}

// AttemptBudget returns the maximum number of generation attempts per request.
func (uc *EvaluateUseCase) AttemptBudget() int { return uc.budget }

// Evaluate validates the prompt, retrieves context once and drafts clauses
// until one is acceptable or the budget runs out.
//
// Acceptance is last-wins: the loop stops on the first Low or Medium clause,
// which is the one returned. Without acceptance, the final attempt's clause is
// returned even when an earlier attempt graded lower; the best-so-far slot is
// only surfaced when the final attempt itself failed. That overwrite mirrors
// the drafting service this replaced and is kept for compatibility.
func (uc *EvaluateUseCase) Evaluate(ctx context.Context, prompt string) (*entities.Evaluation, error) {
	intent, err := entities.NewIntent(prompt)
	if err != nil {
		return nil, err
	}
	tag := requestTag(ctx)

	passages, err := uc.retriever.Retrieve(ctx, intent.String(), uc.topK)
	if err != nil {
		if errors.Is(err, entities.ErrNoPassages) {
			uc.logger.Printf("[INFO] %sno passages for intent, skipping generation", tag)
			return nil, err
		}
		return nil, fmt.Errorf("retrieving passages: %w", err)
	}
	if len(passages) == 0 {
		return nil, entities.ErrNoPassages
	}
	meta, source := entities.SourceOf(passages)

	var (
		best     entities.Candidate
		hasBest  bool
		surfaced *entities.Candidate
		attempts int
		failures int
	)

	for attempt := 1; attempt <= uc.budget; attempt++ {
		if ctx.Err() != nil {
			uc.logger.Printf("[WARN] %sdeadline reached after %d attempts", tag, attempts)
			break
		}
		attempts++

		cand, err := uc.attempt(ctx, intent.String(), passages, source, attempt)
		if err != nil {
			failures++
			uc.logger.Printf("[WARN] %sattempt %d/%d failed: %v", tag, attempt, uc.budget, err)
			continue
		}

		if !hasBest || cand.Risk.Less(best.Risk) {
			best = cand
			hasBest = true
		}

		if cand.Risk.Acceptable() {
			surfaced = &cand
			uc.logger.Printf("[OK] %sattempt %d accepted with %s risk", tag, attempt, cand.Risk)
			break
		}

		if attempt == uc.budget {
			surfaced = &cand
			uc.logger.Printf("[INFO] %sbudget exhausted, returning final attempt (%s risk, best seen %s)",
				tag, cand.Risk, best.Risk)
		}
	}

	if surfaced == nil {
		if !hasBest {
			if err := ctx.Err(); err != nil && attempts < uc.budget {
				return nil, fmt.Errorf("%w: %v", entities.ErrAllAttemptsFailed, err)
			}
			return nil, fmt.Errorf("%w after %d attempts", entities.ErrAllAttemptsFailed, attempts)
		}
		surfaced = &best
	}

	return &entities.Evaluation{
		Candidate:       *surfaced,
		Metadata:        meta,
		FeedbackOptions: append([]string(nil), entities.FeedbackOptions...),
		Attempts:        attempts,
		Failures:        failures,
	}, nil
}

// attempt runs one generate and assess cycle. A candidate is only returned
// fully formed.
func (uc *EvaluateUseCase) attempt(
	ctx context.Context,
	intent string,
	passages []entities.Passage,
	source string,
	n int,
) (entities.Candidate, error) {
	clause, err := uc.generator.Generate(ctx, intent, passages)
	if err != nil {
		return entities.Candidate{}, err
	}

	assessment, err := uc.assessor.AssessRisk(ctx, clause)
	if err != nil {
		return entities.Candidate{}, fmt.Errorf("%w: %v", entities.ErrAssessment, err)
	}

	return entities.Candidate{
		Clause:    clause,
		Risk:      assessment.Level,
		Category:  uc.classifier.Classify(clause),
		Reasoning: assessment.Reasoning,
		SourceID:  source,
		Attempt:   n,
	}, nil
}
