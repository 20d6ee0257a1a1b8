// Package schema derives and validates partition keys, the PostgreSQL
// schema names that isolate one tenant's data from every other tenant.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the PostgreSQL identifier limit (NAMEDATALEN - 1)
const MaxLength = 63

// DefaultPrefix namespaces generated keys away from system schemas
const DefaultPrefix = "tenant_"

// ErrInvalidKey is returned when a key is reserved or malformed
var ErrInvalidKey = errors.New("invalid partition key")

var (
	slugPattern  = regexp.MustCompile(`[^a-z0-9]+`)
	validPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Reserved lists names no tenant may use: the public partition, engine
// catalogs, and names that collide with auth/static/media routing.
var Reserved = map[string]struct{}{
	"public":             {},
	"shared":             {},
	"default":            {},
	"main":               {},
	"admin":              {},
	"information_schema": {},
	"pg_catalog":         {},
	"pg_toast":           {},
	"pg_temp":            {},
	"extensions":         {},
	"template0":          {},
	"template1":          {},
	"postgres":           {},
	"test":               {},
	"staging":            {},
	"production":         {},
	"dev":                {},
	"api":                {},
	"auth":               {},
	"static":             {},
	"media":              {},
	"www":                {},
	"mail":               {},
	"ftp":                {},
	"localhost":          {},
	"root":               {},
	"system":             {},
	"null":               {},
	"undefined":          {},
	"true":               {},
	"false":              {},
}

// IsReserved reports whether key is in the reserved set
func IsReserved(key string) bool {
	_, ok := Reserved[key]
	return ok
}

// Generate derives a candidate key from a display name using DefaultPrefix
func Generate(name string) string {
	return GenerateWithPrefix(DefaultPrefix, name)
}

// fold strips diacritics so "Genève" slugs to "geneve"
func fold(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		return name
	}
	return folded
}

// GenerateWithPrefix folds accents, lowercases name, collapses every run of
// non-alphanumerics into one underscore, trims underscores, prefixes and
// truncates to MaxLength. The result is deterministic for a given name.
func GenerateWithPrefix(prefix, name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(fold(name)), "_")
	slug = strings.Trim(slug, "_")
	key := prefix + slug
	if len(key) > MaxLength {
		key = key[:MaxLength]
	}
	return key
}

// Validate fails with ErrInvalidKey if key is reserved or malformed
func Validate(key string) error {
	if IsReserved(key) {
		return fmt.Errorf("%w: %q is a reserved schema name", ErrInvalidKey, key)
	}
	if len(key) > MaxLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidKey, key, MaxLength)
	}
	if !validPattern.MatchString(key) {
		return fmt.Errorf("%w: %q must start with a letter and contain only lowercase letters, numbers and underscores", ErrInvalidKey, key)
	}
	return nil
}

// Dedupe returns base if it is free, otherwise base_1, base_2, ... The
// base is shortened when needed so the suffixed key stays within MaxLength.
func Dedupe(base string, exists func(key string) (bool, error)) (string, error) {
	taken, err := exists(base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	for n := 1; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		stem := base
		if len(stem)+len(suffix) > MaxLength {
			stem = stem[:MaxLength-len(suffix)]
		}
		candidate := stem + suffix
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

// QuoteIdent quotes a PostgreSQL identifier for use in DDL
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
