package domain

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "namereg/pkg/errors"
)

// QuotaCategory partitions quota balances into non-fungible buckets keyed by
// the length class of the name a unit can register. Balances in different
// categories are never interchangeable.
//
// The closed set is len-eq-1 .. len-eq-7 and len-gte-1 .. len-gte-7; "standard"
// is accepted on input as an alias for len-gte-7 (any name of seven or more
// characters) and normalizes to it at parse time.
type QuotaCategory string

const (
	categoryKindEq  = "len-eq"
	categoryKindGte = "len-gte"

	minCategoryLen = 1
	maxCategoryLen = 7

	// CategoryStandard covers the common case: labels of seven characters or
	// more.
	CategoryStandard QuotaCategory = "len-gte-7"
)

// ParseQuotaCategory constructs a QuotaCategory from external input, enforcing
// the closed set.
func ParseQuotaCategory(s string) (QuotaCategory, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "standard" {
		return CategoryStandard, nil
	}
	kind, n, ok := splitCategory(s)
	if !ok || n < minCategoryLen || n > maxCategoryLen {
		return "", pkgerrors.Newf(pkgerrors.CodeBadRequest, "unknown quota category: %q", s)
	}
	return QuotaCategory(fmt.Sprintf("%s-%d", kind, n)), nil
}

func splitCategory(s string) (kind string, n int, ok bool) {
	idx := strings.LastIndex(s, "-")
	if idx < 0 {
		return "", 0, false
	}
	kind = s[:idx]
	if kind != categoryKindEq && kind != categoryKindGte {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return kind, n, true
}

// AllQuotaCategories enumerates the closed set, len-eq classes first.
func AllQuotaCategories() []QuotaCategory {
	out := make([]QuotaCategory, 0, 2*(maxCategoryLen-minCategoryLen+1))
	for n := minCategoryLen; n <= maxCategoryLen; n++ {
		out = append(out, QuotaCategory(fmt.Sprintf("%s-%d", categoryKindEq, n)))
	}
	for n := minCategoryLen; n <= maxCategoryLen; n++ {
		out = append(out, QuotaCategory(fmt.Sprintf("%s-%d", categoryKindGte, n)))
	}
	return out
}

func (c QuotaCategory) String() string { return string(c) }

// IsValid reports whether c is a member of the closed set.
func (c QuotaCategory) IsValid() bool {
	kind, n, ok := splitCategory(string(c))
	return ok && kind != "" && n >= minCategoryLen && n <= maxCategoryLen
}

// Covers reports whether one unit of this category may register a label of the
// given length: len-eq-N covers exactly N, len-gte-N covers N or longer.
func (c QuotaCategory) Covers(labelLen int) bool {
	kind, n, ok := splitCategory(string(c))
	if !ok {
		return false
	}
	if kind == categoryKindEq {
		return labelLen == n
	}
	return labelLen >= n
}
