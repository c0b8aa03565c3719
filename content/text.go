package content

import "strings"

// DeriveSlug converts a title to a URL-safe slug: lowercase, runs of
// anything outside [a-z0-9] collapsed to one hyphen, no hyphen at either end.
func DeriveSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SplitTags splits comma-separated form text into trimmed, non-empty tags.
func SplitTags(s string) StringList {
	return filterEmpty(strings.Split(s, ","))
}

// SplitLines splits newline-separated form text into trimmed, non-empty lines.
func SplitLines(s string) StringList {
	return filterEmpty(strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n"))
}

// JoinTags formats tags for a form field.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// JoinLines formats a list as one item per line.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

func filterEmpty(vals []string) StringList {
	var out StringList
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
