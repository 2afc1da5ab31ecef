package pages

import (
	"fmt"
	"strings"

	"rationbook/models"
)

// NextUntitledFormulationName returns a human-friendly default name for a new formulation.
func NextUntitledFormulationName(existing []models.Formulation) string {
	const base = "Untitled Formulation"
	used := make(map[string]struct{}, len(existing))
	for _, formulation := range existing {
		name := strings.TrimSpace(formulation.Name)
		if name == "" {
			continue
		}
		used[strings.ToLower(name)] = struct{}{}
	}

	if _, ok := used[strings.ToLower(base)]; !ok {
		return base
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", base, i)
		if _, ok := used[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}

// NextCopiedFormulationName generates a non-conflicting name when duplicating a formulation.
func NextCopiedFormulationName(existing []models.Formulation, base string) string {
	baseTrim := strings.TrimSpace(base)
	if baseTrim == "" {
		return NextUntitledFormulationName(existing)
	}

	used := make(map[string]struct{}, len(existing))
	for _, formulation := range existing {
		name := strings.TrimSpace(formulation.Name)
		if name == "" {
			continue
		}
		used[strings.ToLower(name)] = struct{}{}
	}

	candidate := fmt.Sprintf("%s (Copy)", baseTrim)
	if _, ok := used[strings.ToLower(candidate)]; !ok {
		return candidate
	}

	for i := 2; ; i++ {
		candidate = fmt.Sprintf("%s (Copy %d)", baseTrim, i)
		if _, ok := used[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}
