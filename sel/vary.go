package sel

import "strings"

// Sep is the default path separator in label queries.
const Sep = ">"

// variations returns the ordered textual forms tried when matching raw
// against stored labels. The cleaned form is the authoritative stored form
// and comes first, the unmodified input always comes last. Spaced resolvers
// insert both the cleaned and the trimmed form with one leading space in
// between, to cover reports that store labels space prefixed.
func (r *Resolver) variations(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	clean := trimmed
	if r.Clean != nil {
		clean = r.Clean(trimmed)
	}
	vs := make([]string, 0, 4)
	vs = append(vs, clean)
	if r.Spaced {
		vs = append(vs, " "+clean, " "+trimmed)
	}
	return append(vs, raw)
}
