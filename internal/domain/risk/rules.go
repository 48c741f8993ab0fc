// Package risk grades and tags clause text with keyword rule tables.
// Everything here is pure: the same text and tables always give the same answer.
package risk

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
)

// LevelRule maps keywords to a risk level.
type LevelRule struct {
	Level    entities.RiskLevel `yaml:"level"`
	Keywords []string           `yaml:"keywords"`
}

// CategoryRule maps keywords to a clause category.
type CategoryRule struct {
	Category entities.Category `yaml:"category"`
	Keywords []string          `yaml:"keywords"`
}

// Rules is the full keyword table. Level rules are checked worst level first;
// category rules are checked in order and the first hit wins.
type Rules struct {
	Levels          []LevelRule        `yaml:"levels"`
	Categories      []CategoryRule     `yaml:"categories"`
	DefaultLevel    entities.RiskLevel `yaml:"default_level"`
	DefaultCategory entities.Category  `yaml:"default_category"`
}

// DefaultRules returns the built-in English keyword table.
func DefaultRules() Rules {
	return Rules{
		Levels: []LevelRule{
			{Level: entities.RiskHigh, Keywords: []string{
				"termination for convenience", "unlimited liability", "indemnify", "liquidated damages",
			}},
			{Level: entities.RiskMedium, Keywords: []string{
				"confidentiality", "non-disclosure", "warranty", "limitation of liability",
			}},
		},
		Categories: []CategoryRule{
			{Category: entities.CategoryTermination, Keywords: []string{"terminate", "termination"}},
			{Category: entities.CategoryConfidentiality, Keywords: []string{"confidential", "non-disclosure"}},
			{Category: entities.CategoryLiability, Keywords: []string{"liability", "indemnify"}},
			{Category: entities.CategoryPayment, Keywords: []string{"payment", "fee", "invoice"}},
		},
		DefaultLevel:    entities.RiskLow,
		DefaultCategory: entities.CategoryGeneral,
	}
}

// Validate checks the table is usable.
func (r Rules) Validate() error {
	for i, lr := range r.Levels {
		if lr.Level.Ordinal() == entities.RiskUnknown.Ordinal() {
			return fmt.Errorf("risk: level rule %d: level must be Low, Medium, High or Very High", i)
		}
		if len(lr.Keywords) == 0 {
			return fmt.Errorf("risk: level rule %d (%s) has no keywords", i, lr.Level)
		}
	}
	for i, cr := range r.Categories {
		if strings.TrimSpace(string(cr.Category)) == "" {
			return fmt.Errorf("risk: category rule %d has no category", i)
		}
		if len(cr.Keywords) == 0 {
			return fmt.Errorf("risk: category rule %d (%s) has no keywords", i, cr.Category)
		}
	}
	return nil
}

// normalized fills empty defaults.
func (r Rules) normalized() Rules {
	if r.DefaultLevel == 0 {
		r.DefaultLevel = entities.RiskLow
	}
	if strings.TrimSpace(string(r.DefaultCategory)) == "" {
		r.DefaultCategory = entities.CategoryGeneral
	}
	return r
}

// ParseRulesYAML decodes a keyword table.
func ParseRulesYAML(data []byte) (Rules, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Rules{}, fmt.Errorf("risk: rules payload is empty")
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("risk: decode rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules.normalized(), nil
}

// LoadRules reads a YAML keyword table from disk.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("risk: read %s: %w", path, err)
	}
	rules, err := ParseRulesYAML(data)
	if err != nil {
		return Rules{}, fmt.Errorf("risk: %s: %w", path, err)
	}
	return rules, nil
}

// Word boundaries built from Unicode classes; `\b` only knows ASCII.
const (
	wordStart = `(?:^|[^\pL\pN_])`
	wordEnd   = `(?:$|[^\pL\pN_])`
)

// compileKeywords builds whole-word, case-insensitive matchers.
func compileKeywords(keywords []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		out = append(out, regexp.MustCompile(wordStart+regexp.QuoteMeta(kw)+wordEnd))
	}
	return out
}
