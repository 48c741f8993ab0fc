// Package usecases - summarize.go condenses contract text with the language model.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

// ErrEmptyText is returned when there is nothing to summarize.
var ErrEmptyText = errors.New("text content cannot be empty")

// SummarizeUseCase produces short summaries of contract text.
type SummarizeUseCase struct {
	llm ports.LLMService
}

// NewSummarizeUseCase creates a SummarizeUseCase.
func NewSummarizeUseCase(llm ports.LLMService) *SummarizeUseCase {
	return &SummarizeUseCase{llm: llm}
}

// Summarize returns a concise summary of text.
func (uc *SummarizeUseCase) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	prompt := "Please summarize the following text concisely and accurately.\n\nText:\n" + text + "\n\nSummary:"
	summary, err := uc.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrGeneration, err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("%w: model returned empty summary", entities.ErrGeneration)
	}
	return summary, nil
}
