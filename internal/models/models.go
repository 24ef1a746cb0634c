package models

import "sort"

// NeutralColor is used for languages the API reports without a color.
const NeutralColor = "#000000"

// LanguageStat is the aggregated weight of one language across repositories.
type LanguageStat struct {
	Size       int64
	Color      *string
	Proportion float64
}

// LanguageEntry is a single language in display order.
type LanguageEntry struct {
	Name       string
	Color      *string
	Size       int64
	Proportion float64
}

// DisplayColor returns the entry color, or NeutralColor when none is known.
func (e LanguageEntry) DisplayColor() string {
	if e.Color == nil || *e.Color == "" {
		return NeutralColor
	}
	return *e.Color
}

// LinesChanged holds the additions and deletions authored by the user.
type LinesChanged struct {
	Added   int
	Deleted int
}

// Total returns additions plus deletions.
func (l LinesChanged) Total() int {
	return l.Added + l.Deleted
}

// Filters narrows which repositories and languages are counted.
type Filters struct {
	ExcludedRepos     map[string]bool
	ExcludedLanguages map[string]bool
	ExcludeForks      bool
	ExcludeContribs   bool
}

// SortLanguages orders a language breakdown by size, largest first.
// Equal sizes are ordered by name so output is stable between runs.
func SortLanguages(langs map[string]LanguageStat) []LanguageEntry {
	entries := make([]LanguageEntry, 0, len(langs))
	for name, stat := range langs {
		entries = append(entries, LanguageEntry{
			Name:       name,
			Color:      stat.Color,
			Size:       stat.Size,
			Proportion: stat.Proportion,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Size != entries[j].Size {
			return entries[i].Size > entries[j].Size
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
