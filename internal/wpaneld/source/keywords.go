package source

import (
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseKeywords reads department keywords stored either as a JSON array or
// as a comma separated list. Blank entries are dropped.
func ParseKeywords(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var list []any
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			s, ok := v.(string)
			if !ok {
				b, _ := json.Marshal(v)
				s = string(b)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Normalize folds a product name or keyword for matching: accents removed,
// lower case, inner whitespace collapsed to single spaces.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// KeywordFilter selects the products that belong to a department
type KeywordFilter struct {
	keywords []string
	set      map[string]bool
	exact    bool
}

// NewKeywordFilter builds a filter. With exact set a product name must
// equal a keyword after normalization; otherwise it must contain one.
// A filter without keywords matches nothing.
func NewKeywordFilter(keywords []string, exact bool) *KeywordFilter {
	f := &KeywordFilter{set: make(map[string]bool), exact: exact}
	for _, k := range keywords {
		n := Normalize(k)
		if n == "" || f.set[n] {
			continue
		}
		f.set[n] = true
		f.keywords = append(f.keywords, n)
	}
	return f
}

// Match reports whether name matches any keyword
func (f *KeywordFilter) Match(name string) bool {
	n := Normalize(name)
	if f.exact {
		return f.set[n]
	}
	for _, k := range f.keywords {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

// Apply keeps matching products. Products whose normalized names collide
// are collapsed to the highest priced one, which takes the slot of the
// first occurrence.
func (f *KeywordFilter) Apply(products []Product) []Product {
	index := make(map[string]int)
	var out []Product
	for _, p := range products {
		if !f.Match(p.Nome) {
			continue
		}
		key := Normalize(p.Nome)
		if i, ok := index[key]; ok {
			if p.Preco > out[i].Preco {
				out[i] = p
			}
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}
	return out
}
