package domain

import (
	"strconv"
	"time"
)

// Category is the productivity label assigned to an app or site.
type Category string

const (
	CategoryProductive    Category = "productive"
	CategoryUnproductive  Category = "unproductive"
	CategoryNeutral       Category = "neutral"
	CategoryUncategorized Category = "uncategorized"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProductive, CategoryUnproductive, CategoryNeutral, CategoryUncategorized:
		return true
	}
	return false
}

// RuleSource records whether a rule carries its shipped category or an admin override.
type RuleSource string

const (
	SourceHardcoded RuleSource = "hardcoded"
	SourceManual    RuleSource = "manual"
)

// RuleType distinguishes websites from desktop applications.
type RuleType string

const (
	RuleTypeWeb RuleType = "web"
	RuleTypeApp RuleType = "app"
)

// CategorizationRule maps an app or site to a category.
type CategorizationRule struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Type              RuleType   `json:"type"`
	Category          Category   `json:"category"`
	Source            RuleSource `json:"source"`
	HardcodedCategory Category   `json:"hardcoded_category,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	Position          int        `json:"-"`
}

// Reset restores the shipped category, falling back to uncategorized.
func (r *CategorizationRule) Reset() {
	r.Category = r.HardcodedCategory
	if r.Category == "" {
		r.Category = CategoryUncategorized
	}
	r.Source = SourceHardcoded
}

// RuleFilter narrows the categorization list.
type RuleFilter string

const (
	RuleFilterAll           RuleFilter = "all"
	RuleFilterUncategorized RuleFilter = "uncategorized"
	RuleFilterManual        RuleFilter = "manual"
)

// RuleQuery selects categorization rules.
type RuleQuery struct {
	TenantID string
	Search   string
	Filter   RuleFilter
	Type     string
}

type ruleSeed struct {
	name     string
	kind     RuleType
	category Category
}

var defaultRuleSeeds = []ruleSeed{
	{"google.com", RuleTypeWeb, CategoryProductive},
	{"youtube.com", RuleTypeWeb, CategoryNeutral},
	{"facebook.com", RuleTypeWeb, CategoryUnproductive},
	{"github.com", RuleTypeWeb, CategoryProductive},
	{"vscodium.exe", RuleTypeApp, CategoryProductive},
	{"slack.exe", RuleTypeApp, CategoryNeutral},
	{"telegram.exe", RuleTypeApp, CategoryUnproductive},
	{"figma.com", RuleTypeWeb, CategoryProductive},
	{"stackoverflow.com", RuleTypeWeb, CategoryProductive},
	{"zoom.exe", RuleTypeApp, CategoryNeutral},
	{"notion.so", RuleTypeWeb, CategoryProductive},
	{"spotify.exe", RuleTypeApp, CategoryUnproductive},
	{"jira.atlassian.com", RuleTypeWeb, CategoryProductive},
	{"trello.com", RuleTypeWeb, CategoryProductive},
	{"chrome.exe", RuleTypeApp, CategoryNeutral},
	{"reddit.com", RuleTypeWeb, CategoryUnproductive},
	{"linkedin.com", RuleTypeWeb, CategoryNeutral},
	{"docker.exe", RuleTypeApp, CategoryProductive},
	{"postman.exe", RuleTypeApp, CategoryProductive},
	{"steam.exe", RuleTypeApp, CategoryUnproductive},
	{"unknown-site.io", RuleTypeWeb, CategoryUncategorized},
	{"mystery.app", RuleTypeApp, CategoryUncategorized},
}

// DefaultRules returns the shipped categorization table.
func DefaultRules() []CategorizationRule {
	rules := make([]CategorizationRule, 0, len(defaultRuleSeeds))
	for i, seed := range defaultRuleSeeds {
		rules = append(rules, CategorizationRule{
			ID:                strconv.Itoa(i + 1),
			Name:              seed.name,
			Type:              seed.kind,
			Category:          seed.category,
			Source:            SourceHardcoded,
			HardcodedCategory: seed.category,
			Position:          i + 1,
		})
	}
	return rules
}
