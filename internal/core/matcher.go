package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPhoneMatchDigits is the shortest normalized number, on either side,
// that may take part in a phone match. It keeps short numeric fragments such
// as apartment numbers from matching real phone numbers.
const MinPhoneMatchDigits = 7

// MinTokenLength is the shortest token, in characters, used for name matching.
const MinTokenLength = 2

// SearchFields returns the fields of d tested for queries of type t.
//
// Fallbacks, in order: for phone queries the phone and name fields; for other
// queries the fields configured for any type; then the display fields.
// The result may be empty, in which case every field of a row is tested.
func SearchFields(d *Descriptor, t QueryType) []string {
	if fields := d.SearchFields[t]; len(fields) > 0 {
		return fields
	}

	var fields []string
	if t == QueryPhone {
		fields = unionFields(d.SearchFields[QueryPhone], d.SearchFields[QueryName])
	} else {
		all := make([][]string, 0, len(d.SearchFields))
		for _, qt := range QueryTypes() {
			all = append(all, d.SearchFields[qt])
		}
		fields = unionFields(all...)
	}

	if len(fields) == 0 {
		fields = d.DisplayFields
	}
	return fields
}

// unionFields concatenates field lists, dropping repeats.
func unionFields(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// Matches reports whether row matches query under the rules for t, testing
// only the given fields (all fields of the row when fields is empty).
func Matches(row Record, query string, t QueryType, fields []string) bool {
	return newMatcher(query, t, fields).match(row)
}

// matcher holds the query-side work of a match so that it is done once per
// dataset instead of once per row.
type matcher struct {
	kind   QueryType
	fields []string

	phone  string   // normalized phone query
	text   string   // trimmed, lower-cased query
	tokens []string // name tokens
}

func newMatcher(query string, t QueryType, fields []string) *matcher {
	m := &matcher{kind: t, fields: fields}
	switch t {
	case QueryPhone:
		m.phone = NormalizePhone(query)
	case QueryEmail:
		m.text = strings.ToLower(strings.TrimSpace(query))
	default:
		m.text = strings.ToLower(strings.TrimSpace(query))
		m.tokens = tokenize(m.text)
	}
	return m
}

func (m *matcher) match(row Record) bool {
	fields := m.fields
	if len(fields) == 0 {
		fields = row.Fields()
	}

	switch m.kind {
	case QueryPhone:
		return m.matchPhone(row, fields)
	case QueryEmail:
		return m.matchEmail(row, fields)
	default:
		return m.matchName(row, fields)
	}
}

// matchPhone accepts equal numbers or numbers where one contains the other,
// as long as both have at least MinPhoneMatchDigits digits.
func (m *matcher) matchPhone(row Record, fields []string) bool {
	target := m.phone
	if target == "" {
		return false
	}
	for _, f := range fields {
		value := NormalizePhone(row.Get(f))
		if value == "" {
			continue
		}
		if len(target) < MinPhoneMatchDigits || len(value) < MinPhoneMatchDigits {
			continue
		}
		if strings.Contains(value, target) || strings.Contains(target, value) {
			return true
		}
	}
	return false
}

// matchEmail accepts fields holding an address that contains the query.
func (m *matcher) matchEmail(row Record, fields []string) bool {
	if !strings.Contains(m.text, "@") {
		return false
	}
	for _, f := range fields {
		value := strings.ToLower(strings.TrimSpace(row.Get(f)))
		if strings.Contains(value, "@") && strings.Contains(value, m.text) {
			return true
		}
	}
	return false
}

// matchName requires every query token to appear as a whole token somewhere
// in the candidate fields. A single-token query is matched as a substring.
func (m *matcher) matchName(row Record, fields []string) bool {
	if len(m.tokens) == 0 {
		return false
	}

	if len(m.tokens) == 1 {
		token := m.tokens[0]
		for _, f := range fields {
			value := strings.ToLower(strings.TrimSpace(row.Get(f)))
			if value != "" && strings.Contains(value, token) {
				return true
			}
		}
		return false
	}

	pool := make(map[string]struct{})
	for _, f := range fields {
		value := strings.TrimSpace(row.Get(f))
		if value == "" {
			continue
		}
		for _, tok := range tokenize(strings.ToLower(value)) {
			pool[tok] = struct{}{}
		}
	}
	for _, tok := range m.tokens {
		if _, ok := pool[tok]; !ok {
			return false
		}
	}
	return true
}

// tokenize splits s on runs of whitespace, commas and semicolons and keeps
// tokens of at least MinTokenLength characters.
func tokenize(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})
	out := parts[:0]
	for _, p := range parts {
		if utf8.RuneCountInString(p) >= MinTokenLength {
			out = append(out, p)
		}
	}
	return out
}

// Project shapes a matching row for display. With display fields configured
// the result has exactly those fields in order, missing ones empty; otherwise
// it keeps every non-empty field of the row.
func Project(row Record, displayFields []string) Record {
	if len(displayFields) > 0 {
		out := NewRecord(len(displayFields))
		for _, f := range displayFields {
			out.Set(f, row.Get(f))
		}
		return out
	}

	out := NewRecord(row.Len())
	for _, f := range row.keys {
		if v := row.values[f]; v != "" {
			out.Set(f, v)
		}
	}
	return out
}
