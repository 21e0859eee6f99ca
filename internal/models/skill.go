package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"portfolio-site/internal/errs"
)

type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SkillFields struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (s Skill) Fields() SkillFields {
	return SkillFields{Name: s.Name, Category: s.Category}
}

func (f SkillFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errs.NewValidationError("name", "name is required")
	}
	return nil
}

type IconKind string

const (
	IconCode     IconKind = "code"
	IconDatabase IconKind = "database"
	IconComputer IconKind = "computer"
	IconImage    IconKind = "image"
	IconDefault  IconKind = "sparkles"
)

var categoryFolder = cases.Lower(language.Und)

// CategoryKey is the case-insensitive grouping key of a category.
func CategoryKey(category string) string {
	return categoryFolder.String(strings.TrimSpace(category))
}

// CategoryIcon maps a skill category to its display icon. Unknown
// categories get IconDefault.
func CategoryIcon(category string) IconKind {
	switch CategoryKey(category) {
	case "frontend":
		return IconCode
	case "backend":
		return IconDatabase
	case "tools", "narzędzia":
		return IconComputer
	case "design":
		return IconImage
	default:
		return IconDefault
	}
}

type SkillGroup struct {
	Key    string
	Name   string
	Icon   IconKind
	Skills []Skill
}

// GroupSkills groups skills by case-insensitive category. Groups keep the
// order in which their category first appears and are labelled with that
// first spelling.
func GroupSkills(skills []Skill) []SkillGroup {
	groups := make([]SkillGroup, 0)
	index := make(map[string]int)
	for _, skill := range skills {
		key := CategoryKey(skill.Category)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, SkillGroup{
				Key:  key,
				Name: strings.TrimSpace(skill.Category),
				Icon: CategoryIcon(skill.Category),
			})
		}
		groups[i].Skills = append(groups[i].Skills, skill)
	}
	return groups
}
