package util

import "strings"

// Prefix is the second-tier keyspace owned by one executor namespace.
func Prefix(ns string) string { return "op:" + ns + ":" }

// StorageKey maps an operation key to its second-tier key.
func StorageKey(ns, key string) string { return Prefix(ns) + key }

// Matches reports whether key contains pattern; "" matches every key.
func Matches(key, pattern string) bool {
	return pattern == "" || strings.Contains(key, pattern)
}

// MatchesUnder reports whether storageKey lives under prefix and the remainder
// contains pattern.
func MatchesUnder(storageKey, prefix, pattern string) bool {
	rest, ok := strings.CutPrefix(storageKey, prefix)
	return ok && Matches(rest, pattern)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// GlobPattern builds a redis MATCH pattern selecting keys under prefix whose
// remainder contains pattern.
func GlobPattern(prefix, pattern string) string {
	if pattern == "" {
		return globEscaper.Replace(prefix) + "*"
	}
	return globEscaper.Replace(prefix) + "*" + globEscaper.Replace(pattern) + "*"
}
