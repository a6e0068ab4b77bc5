package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// MaxSuggestionDistance is the largest edit distance offered as a suggestion
const MaxSuggestionDistance = 3

// ErrorOptions configures an error message
type ErrorOptions struct {
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError formats an error with suggestions and help commands:
//
//	❌ ENTITY NOT FOUND: Cannot find entity 'sample-entity-1'.
//
//	   Did you mean: sample-entity-01?
//
//	   → See all entities: descriptor resources
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if opts.NoColor {
		red.DisableColor()
		yellow.DisableColor()
		cyan.DisableColor()
	}

	if opts.Context != "" {
		red.Fprintf(&b, "❌ %s: %s\n", strings.ToUpper(opts.Context), opts.Problem)
	} else {
		red.Fprintf(&b, "❌ %s\n", opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// EntityNotFoundError formats the error for an unknown entity name, with
// the closest known names as suggestions
func EntityNotFoundError(name string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "entity not found",
		Problem:     fmt.Sprintf("Cannot find entity '%s'.", name),
		Suggestions: FindSimilar(name, known, 3),
		HelpCommands: []string{
			"See all entities: descriptor resources",
		},
		NoColor: noColor,
	})
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// FindSimilar returns up to max candidates within MaxSuggestionDistance of
// target, closest first. Matching ignores case.
func FindSimilar(target string, candidates []string, max int) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	for _, candidate := range candidates {
		d := LevenshteinDistance(strings.ToLower(target), strings.ToLower(candidate))
		if d <= MaxSuggestionDistance {
			matches = append(matches, match{candidate, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, max)
	for i := 0; i < len(matches) && i < max; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// LevenshteinDistance returns the number of single-rune edits turning s1
// into s2
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
