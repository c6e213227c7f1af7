package domain

import (
	"strings"
	"unicode"

	pkgerrors "namereg/pkg/errors"
)

// Principal is an opaque, comparable caller identity. The registry never
// inspects its structure; two principals are the same caller iff they are
// equal. The zero value and the Anonymous sentinel both represent the
// unauthenticated caller.
type Principal string

// Anonymous is the unauthenticated sentinel. It is never a valid owner,
// delegate, or quota holder; setting a name's delegate to Anonymous clears
// the approval.
const Anonymous Principal = "anonymous"

const maxPrincipalLen = 255

// ParsePrincipal constructs a Principal from external input. Empty input and
// the literal anonymous token map to Anonymous, which is a valid value here;
// operations that require authentication must call RequireAuthenticated.
func ParsePrincipal(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == string(Anonymous) {
		return Anonymous, nil
	}
	if len(s) > maxPrincipalLen {
		return Anonymous, pkgerrors.New(pkgerrors.CodeBadRequest, "principal too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return Anonymous, pkgerrors.New(pkgerrors.CodeBadRequest, "principal contains whitespace or control characters")
		}
	}
	return Principal(s), nil
}

func (p Principal) String() string { return string(p) }

// IsAnonymous reports whether p is the unauthenticated sentinel.
func (p Principal) IsAnonymous() bool { return p == Anonymous || p == "" }

// RequireAuthenticated is the identity guard: it fails with unauthorized iff
// the principal is anonymous. It gates every operation where an anonymous
// actor must not be treated as a valid party.
func RequireAuthenticated(p Principal) (Principal, error) {
	if p.IsAnonymous() {
		return Anonymous, pkgerrors.New(pkgerrors.CodeUnauthorized, "anonymous caller is not allowed")
	}
	return p, nil
}
