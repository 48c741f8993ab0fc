// Package usecases - generate.go drafts a clause from an intent and retrieved examples.
package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

// GenerateUseCase implements ports.ClauseGenerator on top of an LLMService.
// It performs no retrieval of its own.
type GenerateUseCase struct {
	llm ports.LLMService
}

// NewGenerateUseCase creates a GenerateUseCase.
func NewGenerateUseCase(llm ports.LLMService) *GenerateUseCase {
	return &GenerateUseCase{llm: llm}
}

// Generate drafts one clause. Empty model output is an ErrGeneration.
func (uc *GenerateUseCase) Generate(ctx context.Context, intent string, passages []entities.Passage) (string, error) {
	prompt := buildClausePrompt(intent, passages)

	clause, err := uc.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrGeneration, err)
	}
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return "", fmt.Errorf("%w: model returned empty output", entities.ErrGeneration)
	}
	return clause, nil
}

// buildClausePrompt lays out the intent, numbered examples and drafting instructions.
func buildClausePrompt(intent string, passages []entities.Passage) string {
	var sb strings.Builder
	sb.WriteString("**User Intent:** ")
	sb.WriteString(intent)
	sb.WriteString("\n\n**Examples:**\n")
	for i, p := range passages {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". [Source: ")
		sb.WriteString(p.Source())
		sb.WriteString("]\n")
		sb.WriteString(strings.TrimSpace(p.Content))
		sb.WriteString("\n")
	}
	sb.WriteString(`
**Instructions:**
- Based solely on the user's intent and the examples provided above, draft a clear, concise, and legally sound clause.
- Use an example only if it directly illustrates or informs the user's specific request.
- Do not include irrelevant or tangential fragments, or references not covered by the examples.
- Attribute any borrowed language or structure by noting "[Adapted from Example X]" in brackets.
- Reply with the clause text only.
`)
	return sb.String()
}
