package domain

import (
	"strings"

	pkgerrors "namereg/pkg/errors"
)

// Name is a normalized second-level name: exactly two dot-separated labels,
// lowercase. Construct via ParseName; direct casting bypasses the grammar and
// must never reach a store.
type Name string

const maxLabelLen = 63

// ParseName normalizes raw (trim, lowercase) and validates the second-level
// grammar. It is deterministic, idempotent on its own output, and has no side
// effects. Every registry or approval lookup that takes a raw string goes
// through here first so malformed names can never enter the stores.
func ParseName(raw string) (Name, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidName, "name must not be empty")
	}
	labels := strings.Split(name, ".")
	if len(labels) != 2 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidName, "it must be second level name")
	}
	label := labels[0]
	if label == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidName, "second level label must not be empty")
	}
	if len(label) > maxLabelLen {
		return "", pkgerrors.New(pkgerrors.CodeInvalidName, "second level name must be less than 64 characters")
	}
	for _, c := range label {
		if !isNameChar(c) {
			return "", pkgerrors.New(pkgerrors.CodeInvalidName, "name must be alphanumeric or -")
		}
	}
	if labels[1] == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidName, "top level label must not be empty")
	}
	return Name(name), nil
}

func isNameChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-'
}

func (n Name) String() string { return string(n) }

// Label returns the second-level (registerable) label.
func (n Name) Label() string {
	label, _, _ := strings.Cut(string(n), ".")
	return label
}
