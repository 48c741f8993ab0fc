package risk

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
)

type levelMatcher struct {
	level    entities.RiskLevel
	patterns []*regexp.Regexp
}

type categoryMatcher struct {
	category entities.Category
	patterns []*regexp.Regexp
}

// KeywordAssessor implements ports.RiskAssessor and ports.Classifier over a Rules table.
// It is immutable after construction and safe for concurrent use.
type KeywordAssessor struct {
	levels          []levelMatcher
	categories      []categoryMatcher
	defaultLevel    entities.RiskLevel
	defaultCategory entities.Category
}

// NewKeywordAssessor compiles rules into matchers.
func NewKeywordAssessor(rules Rules) (*KeywordAssessor, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	rules = rules.normalized()

	a := &KeywordAssessor{
		defaultLevel:    rules.DefaultLevel,
		defaultCategory: rules.DefaultCategory,
	}
	for _, lr := range rules.Levels {
		a.levels = append(a.levels, levelMatcher{level: lr.Level, patterns: compileKeywords(lr.Keywords)})
	}
	// Worst level first so a clause hitting both High and Medium keywords grades High.
	sort.SliceStable(a.levels, func(i, j int) bool {
		return a.levels[j].level.Less(a.levels[i].level)
	})
	for _, cr := range rules.Categories {
		a.categories = append(a.categories, categoryMatcher{category: cr.Category, patterns: compileKeywords(cr.Keywords)})
	}
	return a, nil
}

// NewDefaultKeywordAssessor uses the built-in table.
func NewDefaultKeywordAssessor() *KeywordAssessor {
	a, err := NewKeywordAssessor(DefaultRules())
	if err != nil {
		panic(err)
	}
	return a
}

// Level grades clause text.
func (a *KeywordAssessor) Level(clause string) entities.RiskLevel {
	lower := strings.ToLower(clause)
	for _, m := range a.levels {
		if anyMatch(m.patterns, lower) {
			return m.level
		}
	}
	return a.defaultLevel
}

// AssessRisk implements ports.RiskAssessor. It never fails.
func (a *KeywordAssessor) AssessRisk(_ context.Context, clause string) (entities.Assessment, error) {
	return entities.Assessment{Level: a.Level(clause)}, nil
}

// Classify implements ports.Classifier.
func (a *KeywordAssessor) Classify(clause string) entities.Category {
	lower := strings.ToLower(clause)
	for _, m := range a.categories {
		if anyMatch(m.patterns, lower) {
			return m.category
		}
	}
	return a.defaultCategory
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
