// Package assessor provides model-backed implementations of ports.RiskAssessor.
package assessor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/ports"
)

// ModelAssessor asks a language model to grade a clause.
// Output that cannot be parsed fails closed to RiskUnknown, never Low.
// Transport errors are returned so the caller can count a failed attempt.
type ModelAssessor struct {
	llm ports.LLMService
}

// NewModelAssessor creates a ModelAssessor.
func NewModelAssessor(llm ports.LLMService) *ModelAssessor {
	return &ModelAssessor{llm: llm}
}

type modelVerdict struct {
	RiskLevel string `json:"risk_level"`
	Reasoning string `json:"reasoning"`
}

// AssessRisk implements ports.RiskAssessor.
func (a *ModelAssessor) AssessRisk(ctx context.Context, clause string) (entities.Assessment, error) {
	raw, err := a.llm.Generate(ctx, buildAssessPrompt(clause))
	if err != nil {
		return entities.Assessment{Level: entities.RiskUnknown}, fmt.Errorf("calling risk model: %w", err)
	}
	return parseVerdict(raw), nil
}

// parseVerdict extracts the JSON verdict from model output.
func parseVerdict(raw string) entities.Assessment {
	body := extractJSON(raw)
	if body == "" {
		return entities.Assessment{
			Level:     entities.RiskUnknown,
			Reasoning: "Failed to assess risk: no JSON object in model response",
		}
	}

	var v modelVerdict
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return entities.Assessment{
			Level:     entities.RiskUnknown,
			Reasoning: fmt.Sprintf("Failed to assess risk: %v", err),
		}
	}

	level, err := entities.ParseRiskLevel(v.RiskLevel)
	if err != nil {
		return entities.Assessment{
			Level:     entities.RiskUnknown,
			Reasoning: fmt.Sprintf("Failed to assess risk: %v", err),
		}
	}
	return entities.Assessment{Level: level, Reasoning: strings.TrimSpace(v.Reasoning)}
}

// extractJSON returns the outermost {...} span, tolerating code fences and chatter.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func buildAssessPrompt(clause string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert legal risk assessor. Analyze the following legal clause.\n\n")
	sb.WriteString("Clause:\n\"")
	sb.WriteString(clause)
	sb.WriteString("\"\n\n")
	sb.WriteString(`Assess the risk level of this clause as 'Low', 'Medium', 'High' or 'Very High' using these criteria:
- Clarity and Ambiguity: is the language clear, precise, and unambiguous?
- Balance and Fairness: is the clause reasonably balanced between parties?
- Completeness: are there critical omissions for its purpose?
- Potential Liability/Safeguards: does it introduce undue liability or miss standard safeguards
  (indemnity, jurisdiction, IP ownership, warranties, limitations of liability)?

Respond with JSON only, in this format:
{"risk_level": "Low" | "Medium" | "High" | "Very High", "reasoning": "concise explanation referencing the criteria"}
`)
	return sb.String()
}
