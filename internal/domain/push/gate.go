package push

import (
	"fmt"
	"regexp"
)

// Gate decides which identities may receive pushes. The pattern must match
// at the start of the ORCID iD, not necessarily the whole of it.
type Gate struct {
	pattern string
	re      *regexp.Regexp
}

func NewGate(pattern string) (*Gate, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidWhitelist, pattern, err)
	}
	return &Gate{pattern: pattern, re: re}, nil
}

func (g *Gate) Allows(orcid string) bool {
	return g.re.MatchString(orcid)
}

func (g *Gate) Pattern() string {
	return g.pattern
}
