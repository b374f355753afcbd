package doi

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultPrefix is the registrant prefix assigned to the published data
// library by DataCite. All minted identifiers live under this prefix.
const DefaultPrefix = "10.20393"

// DOI is a Digital Object Identifier value.
//
// A minted DOI is a candidate only: it is held in memory until the
// registration provider confirms it, and is discarded if registration fails.
// Nothing is persisted for a candidate.
type DOI struct {
	value string
}

// Mint generates a new candidate DOI under the given prefix. The suffix is a
// fresh random UUID (v4); uniqueness relies on the UUID space, no store
// collision check is performed. An empty prefix falls back to DefaultPrefix.
func Mint(prefix string) DOI {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return DOI{value: fmt.Sprintf("%s/%s", prefix, uuid.New())}
}

// Parse validates a DOI string of the form "<prefix>/<suffix>" where the
// prefix is a DataCite directory indicator ("10.<registrant>").
func Parse(s string) (DOI, error) {
	if s == "" {
		return DOI{}, fmt.Errorf("DOI cannot be empty")
	}
	prefix, suffix, ok := strings.Cut(s, "/")
	if !ok || suffix == "" {
		return DOI{}, fmt.Errorf("invalid DOI format (expected 'prefix/suffix'): %s", s)
	}
	if !strings.HasPrefix(prefix, "10.") || len(prefix) <= len("10.") {
		return DOI{}, fmt.Errorf("invalid DOI prefix (expected '10.<registrant>'): %s", s)
	}
	return DOI{value: s}, nil
}

// MustParse parses a DOI from string, panicking on error. Useful for test
// fixtures where the value is known valid.
func MustParse(s string) DOI {
	d, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("invalid DOI: %s: %v", s, err))
	}
	return d
}

// String returns the full DOI string, e.g. "10.20393/3fa85f64-...".
func (d DOI) String() string {
	return d.value
}

// IsZero returns true if no DOI has been set.
func (d DOI) IsZero() bool {
	return d.value == ""
}

// Equal returns true if two DOIs are equal.
func (d DOI) Equal(other DOI) bool {
	return d.value == other.value
}

// Prefix returns the registrant prefix portion of the DOI.
func (d DOI) Prefix() string {
	prefix, _, _ := strings.Cut(d.value, "/")
	return prefix
}

// Suffix returns the portion after the registrant prefix.
func (d DOI) Suffix() string {
	_, suffix, _ := strings.Cut(d.value, "/")
	return suffix
}
