// Package files moves downloaded documents into the per-company destination.
package files

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Render replaces every {{name}} in tmpl with vars[name]. Unknown names are
// left as written.
func Render(tmpl string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := strings.TrimSpace(m[2 : len(m)-2])
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// Placeholders lists the names used in tmpl, in order of appearance.
func Placeholders(tmpl string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// Vars merges the given maps left to right and adds _dia, _mes and _ano for now.
func Vars(now time.Time, maps ...map[string]string) map[string]string {
	out := map[string]string{
		"_dia": fmt.Sprintf("%02d", now.Day()),
		"_mes": fmt.Sprintf("%02d", int(now.Month())),
		"_ano": fmt.Sprintf("%04d", now.Year()),
	}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
