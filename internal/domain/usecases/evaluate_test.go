package usecases

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
)

const validIntent = "draft a confidentiality clause for a SaaS agreement"

func newTestEvaluator(r *mockRetriever, g *scriptedGenerator, a *scriptedAssessor, budget int) *EvaluateUseCase {
	return NewEvaluateUseCase(r, g, a, fixedClassifier{category: entities.CategoryConfidentiality}, EvaluateOptions{
		AttemptBudget: budget,
		Logger:        log.New(io.Discard, "", 0),
	})
}

func TestEvaluate_RejectsShortIntentBeforeRetrieval(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	uc := newTestEvaluator(r, g, &scriptedAssessor{}, RefiningBudget)

	_, err := uc.Evaluate(context.Background(), "fix this")
	if !errors.Is(err, entities.ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
	if r.calls != 0 || g.calls != 0 {
		t.Errorf("no collaborator should be called, retrieve=%d generate=%d", r.calls, g.calls)
	}
}

func TestEvaluate_EmptyRetrievalShortCircuits(t *testing.T) {
	for name, r := range map[string]*mockRetriever{
		"not found error": {err: entities.ErrNoPassages},
		"empty slice":     {passages: nil},
	} {
		t.Run(name, func(t *testing.T) {
			g := &scriptedGenerator{}
			uc := newTestEvaluator(r, g, &scriptedAssessor{}, RefiningBudget)

			_, err := uc.Evaluate(context.Background(), validIntent)
			if !errors.Is(err, entities.ErrNoPassages) {
				t.Fatalf("expected ErrNoPassages, got %v", err)
			}
			if g.calls != 0 {
				t.Errorf("expected zero generation calls, got %d", g.calls)
			}
		})
	}
}

func TestEvaluate_RetrievalFailureIsTerminal(t *testing.T) {
	r := &mockRetriever{err: errors.New("index unavailable")}
	g := &scriptedGenerator{}
	uc := newTestEvaluator(r, g, &scriptedAssessor{}, RefiningBudget)

	_, err := uc.Evaluate(context.Background(), validIntent)
	if err == nil || errors.Is(err, entities.ErrNoPassages) {
		t.Fatalf("expected a generic retrieval error, got %v", err)
	}
	if r.calls != 1 || g.calls != 0 {
		t.Errorf("retrieval must not be retried, retrieve=%d generate=%d", r.calls, g.calls)
	}
}

func TestEvaluate_HighThenMediumAcceptsSecond(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	a := &scriptedAssessor{levels: []entities.RiskLevel{entities.RiskHigh, entities.RiskMedium}}
	uc := newTestEvaluator(r, g, a, RefiningBudget)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if g.calls != 2 {
		t.Errorf("expected 2 generation calls, got %d", g.calls)
	}
	if ev.Clause != "clause 2" || ev.Risk != entities.RiskMedium || ev.Attempt != 2 {
		t.Errorf("expected attempt 2 Medium, got %+v", ev.Candidate)
	}
	if ev.Category != entities.CategoryConfidentiality {
		t.Errorf("unexpected category %s", ev.Category)
	}
	if ev.Attempts != 2 {
		t.Errorf("expected 2 attempts recorded, got %d", ev.Attempts)
	}
}

func TestEvaluate_AcceptingAttemptWinsOverEarlierBest(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	// Attempt 3 is accepted even though attempt 2 was graded no worse.
	a := &scriptedAssessor{levels: []entities.RiskLevel{
		entities.RiskUnknown, entities.RiskHigh, entities.RiskMedium, entities.RiskLow,
	}}
	uc := newTestEvaluator(r, g, a, RefiningBudget)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if ev.Clause != "clause 3" {
		t.Errorf("expected the accepting attempt 3, got %s", ev.Clause)
	}
	if g.calls != 3 {
		t.Errorf("loop should stop at first acceptance, got %d calls", g.calls)
	}
}

func TestEvaluate_AllHighReturnsFinalAttempt(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	a := &scriptedAssessor{levels: repeatLevel(entities.RiskHigh, 10)}
	uc := newTestEvaluator(r, g, a, RefiningBudget)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if g.calls != 10 {
		t.Errorf("expected 10 generation calls, got %d", g.calls)
	}
	if ev.Clause != "clause 10" || ev.Risk != entities.RiskHigh {
		t.Errorf("expected final attempt, got %+v", ev.Candidate)
	}
}

func TestEvaluate_FinalAttemptOverwritesBetterEarlierCandidate(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	levels := repeatLevel(entities.RiskVeryHigh, 10)
	levels[3] = entities.RiskHigh
	a := &scriptedAssessor{levels: levels}
	uc := newTestEvaluator(r, g, a, RefiningBudget)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if ev.Clause != "clause 10" || ev.Risk != entities.RiskVeryHigh {
		t.Errorf("final attempt should be surfaced, got %+v", ev.Candidate)
	}
}

func TestEvaluate_GenerationFailuresAreAbsorbed(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{failOn: map[int]bool{1: true, 2: true, 3: true}}
	a := &scriptedAssessor{levels: []entities.RiskLevel{entities.RiskLow}}
	uc := newTestEvaluator(r, g, a, RefiningBudget)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if ev.Clause != "clause 4" || ev.Risk != entities.RiskLow {
		t.Errorf("expected attempt 4 Low, got %+v", ev.Candidate)
	}
	if ev.Attempts != 4 || ev.Failures != 3 {
		t.Errorf("expected 4 attempts with 3 failures, got %d/%d", ev.Attempts, ev.Failures)
	}
}

func TestEvaluate_AssessmentFailureCountsAgainstBudget(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	a := &scriptedAssessor{
		levels: []entities.RiskLevel{entities.RiskHigh, entities.RiskHigh, entities.RiskHigh},
		failOn: map[int]bool{3: true},
	}
	uc := newTestEvaluator(r, g, a, 3)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if g.calls != 3 {
		t.Errorf("expected 3 generation calls, got %d", g.calls)
	}
	// Final attempt failed, so the best earlier candidate is surfaced.
	if ev.Clause != "clause 1" || ev.Failures != 1 {
		t.Errorf("expected best non-failed candidate clause 1, got %+v (failures %d)", ev.Candidate, ev.Failures)
	}
}

func TestEvaluate_FailedFinalAttemptSurfacesBest(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{failOn: map[int]bool{3: true}}
	a := &scriptedAssessor{levels: []entities.RiskLevel{entities.RiskVeryHigh, entities.RiskHigh}}
	uc := newTestEvaluator(r, g, a, 3)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if ev.Clause != "clause 2" || ev.Risk != entities.RiskHigh {
		t.Errorf("expected best candidate clause 2 High, got %+v", ev.Candidate)
	}
}

func TestEvaluate_AllAttemptsFail(t *testing.T) {
	fail := map[int]bool{}
	for i := 1; i <= RefiningBudget; i++ {
		fail[i] = true
	}
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{failOn: fail}
	uc := newTestEvaluator(r, g, &scriptedAssessor{}, RefiningBudget)

	_, err := uc.Evaluate(context.Background(), validIntent)
	if !errors.Is(err, entities.ErrAllAttemptsFailed) {
		t.Fatalf("expected ErrAllAttemptsFailed, got %v", err)
	}
	if g.calls != RefiningBudget {
		t.Errorf("every attempt should be tried, got %d", g.calls)
	}
}

func TestEvaluate_DirectBudgetReturnsFirstClause(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	a := &scriptedAssessor{levels: []entities.RiskLevel{entities.RiskVeryHigh}}
	uc := newTestEvaluator(r, g, a, DirectBudget)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if g.calls != 1 || ev.Clause != "clause 1" || ev.Risk != entities.RiskVeryHigh {
		t.Errorf("direct mode should return the single attempt, got %+v after %d calls", ev.Candidate, g.calls)
	}
}

func TestEvaluate_UnknownRiskNeverAccepted(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	a := &scriptedAssessor{levels: repeatLevel(entities.RiskUnknown, 4)}
	uc := newTestEvaluator(r, g, a, 4)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if g.calls != 4 || ev.Risk != entities.RiskUnknown {
		t.Errorf("expected 4 calls ending Unknown, got %d calls, %s", g.calls, ev.Risk)
	}
}

func TestEvaluate_ReusesRetrievedPassages(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	a := &scriptedAssessor{levels: repeatLevel(entities.RiskHigh, 3)}
	uc := newTestEvaluator(r, g, a, 3)

	if _, err := uc.Evaluate(context.Background(), validIntent); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if r.calls != 1 {
		t.Errorf("retrieval should happen once, got %d", r.calls)
	}
	for i, ps := range g.passages {
		if len(ps) != 5 || &ps[0] != &g.passages[0][0] {
			t.Errorf("attempt %d did not reuse the retrieved passages", i+1)
		}
	}
}

func TestEvaluate_ResponseShape(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	a := &scriptedAssessor{levels: []entities.RiskLevel{entities.RiskLow}}
	uc := newTestEvaluator(r, g, a, RefiningBudget)

	ev, err := uc.Evaluate(context.Background(), validIntent)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if ev.SourceID != "contract-1.txt" {
		t.Errorf("source should come from first passage, got %s", ev.SourceID)
	}
	if len(ev.FeedbackOptions) != 3 || ev.FeedbackOptions[0] != "Accept" ||
		ev.FeedbackOptions[1] != "Re-generate" || ev.FeedbackOptions[2] != "Edit" {
		t.Errorf("unexpected feedback options %v", ev.FeedbackOptions)
	}

	// Mutating a response must not leak into the next one.
	ev.FeedbackOptions[0] = "changed"
	if entities.FeedbackOptions[0] != "Accept" {
		t.Error("feedback options must be copied per response")
	}
}

func TestEvaluate_CancelledContextStopsLoop(t *testing.T) {
	r := &mockRetriever{passages: fivePassages()}
	g := &scriptedGenerator{}
	uc := newTestEvaluator(r, g, &scriptedAssessor{}, RefiningBudget)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Evaluate(ctx, validIntent)
	if !errors.Is(err, entities.ErrAllAttemptsFailed) {
		t.Fatalf("expected ErrAllAttemptsFailed, got %v", err)
	}
	if g.calls != 0 {
		t.Errorf("no attempt should start after cancellation, got %d", g.calls)
	}
}

func TestEvaluate_DefaultsBudget(t *testing.T) {
	uc := NewEvaluateUseCase(&mockRetriever{}, &scriptedGenerator{}, &scriptedAssessor{}, fixedClassifier{}, EvaluateOptions{})
	if uc.AttemptBudget() != RefiningBudget {
		t.Errorf("expected default budget %d, got %d", RefiningBudget, uc.AttemptBudget())
	}
}
