package mqcodec

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonicalize folds a field name for comparison: lower case, canonical
// decomposition and combining marks removed. "Código" and "CODIGO" both
// become "codigo".
func Canonicalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(folded)
}

// lookup resolves key in ctx, exact match first, then by canonical name.
func lookup(ctx map[string]interface{}, key string) (interface{}, bool) {
	if ctx == nil {
		return nil, false
	}
	if v, ok := ctx[key]; ok {
		return v, true
	}
	return lookupCanonical(ctx, Canonicalize(key))
}

// lookupCanonical picks the lexically smallest matching key so that callers
// supplying both "Código" and "codigo" get a stable answer.
func lookupCanonical(ctx map[string]interface{}, canonical string) (interface{}, bool) {
	var (
		best  string
		value interface{}
		found bool
	)
	for k, v := range ctx {
		if Canonicalize(k) != canonical {
			continue
		}
		if !found || k < best {
			best, value, found = k, v, true
		}
	}
	return value, found
}
