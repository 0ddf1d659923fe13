// Package cmdline splits and joins the argument strings stored in
// anchor.yaml and in OS service registrations.
package cmdline

import "strings"

// Split breaks s into arguments on unquoted whitespace. Double quotes group
// text and are removed; backslashes are literal so Windows paths survive.
func Split(s string) []string {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case (r == ' ' || r == '\t' || r == '\n' || r == '\r') && !inQuote:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, cur.String())
	}
	return args
}

// Quote wraps s in double quotes when it is empty or contains whitespace.
func Quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

// Join quotes the executable and appends the raw argument string.
func Join(exe, args string) string {
	if strings.TrimSpace(args) == "" {
		return Quote(exe)
	}
	return Quote(exe) + " " + strings.TrimSpace(args)
}
