// Package render substitutes resolved values into badge templates.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/UnitVectorY-Labs/statbadges/internal/models"
)

// DelayStep is the animation delay between consecutive legend entries, in ms.
const DelayStep = 150

var placeholderRegex = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Render replaces every {{ name }} token that has an entry in values.
// Unknown tokens are left as they are. Values are inserted verbatim, so
// markup in a value is not escaped, and a value is never expanded again.
func Render(tmpl string, values map[string]string) string {
	return placeholderRegex.ReplaceAllStringFunc(tmpl, func(token string) string {
		name := placeholderRegex.FindStringSubmatch(token)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return token
	})
}

// Placeholders lists the distinct placeholder names in tmpl, in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRegex.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Count formats an integer with thousands separators, e.g. 12345 -> "12,345".
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// ProgressBar builds one bar segment per language, in the given order.
func ProgressBar(langs []models.LanguageEntry) string {
	var b strings.Builder
	for _, l := range langs {
		fmt.Fprintf(&b,
			`<span style="background-color: %s;width: %0.3f%%;" class="progress-item"></span>`,
			l.DisplayColor(), l.Proportion)
	}
	return b.String()
}

// LanguageList builds one legend entry per language. Each entry is revealed
// DelayStep ms after the previous one.
func LanguageList(langs []models.LanguageEntry) string {
	var b strings.Builder
	for i, l := range langs {
		color := l.DisplayColor()
		fmt.Fprintf(&b, `
<li style="animation-delay: %dms;">
<svg xmlns="http://www.w3.org/2000/svg" class="octicon" style="fill:%s;"
viewBox="0 0 16 16" version="1.1" width="16" height="16"><path
fill-rule="evenodd" d="M8 4a4 4 0 100 8 4 4 0 000-8z"></path></svg>
<span class="lang">%s</span>
<span class="percent">%0.2f%%</span>
</li>

`, i*DelayStep, color, l.Name, l.Proportion)
	}
	return b.String()
}
