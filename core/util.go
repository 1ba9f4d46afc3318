package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SplitLines splits a textarea value into its cleaned, non-blank lines.
func SplitLines(s string) []string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = CleanString(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SplitList splits a comma separated value into its cleaned, non-blank items.
func SplitList(s string) []string {
	return SplitLines(strings.ReplaceAll(s, ",", "\n"))
}
