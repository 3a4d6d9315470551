package memory

import (
	"regexp"
	"strings"
	"sync"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// keyMatches applies the key predicates of q to one key
func keyMatches(key string, q repositories.ReferenceQuery) bool {
	if q.ExcludeReserved && strings.HasPrefix(key, "_") {
		return false
	}
	for _, k := range q.ExcludeKeys {
		if k == key {
			return false
		}
	}
	if len(q.Keys) == 0 && len(q.KeyPatterns) == 0 {
		return true
	}
	for _, k := range q.Keys {
		if k == key {
			return true
		}
	}
	for _, p := range q.KeyPatterns {
		if like(key, p) {
			return true
		}
	}
	return false
}

// valueMatches is true when any predicate matches. Contains is case-insensitive
// like SQLite's LIKE; Equals is exact.
func valueMatches(value string, ms []repositories.ValueMatch) bool {
	for _, m := range ms {
		switch m.Kind {
		case repositories.MatchEquals:
			if value == m.Term {
				return true
			}
		case repositories.MatchContains:
			if m.Term != "" && strings.Contains(strings.ToLower(value), strings.ToLower(m.Term)) {
				return true
			}
		}
	}
	return false
}

var likeCache sync.Map

// like evaluates a SQL LIKE pattern with '\' as the escape character
func like(s, pattern string) bool {
	if re, ok := likeCache.Load(pattern); ok {
		return re.(*regexp.Regexp).MatchString(s)
	}
	var b strings.Builder
	b.WriteString("(?is)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re := regexp.MustCompile(b.String())
	likeCache.Store(pattern, re)
	return re.MatchString(s)
}
