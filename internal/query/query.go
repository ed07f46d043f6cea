// Package query filters and orders the in-memory snippet set for search
// and admin listing. The store returns records in unspecified order; this
// is the only place ordering semantics live.
package query

import (
	"sort"
	"strings"

	"github.com/sakif/snipbin/internal/model"
)

// Order selects the result ordering for Search.
type Order string

const (
	// OrderNewest is the default: filename descending. The key is
	// timestamp-derived, so string order is chronological order.
	OrderNewest   Order = "newest"
	OrderOldest   Order = "oldest"
	OrderLangAsc  Order = "lang-asc"
	OrderLangDesc Order = "lang-desc"
)

// ParseOrder maps a request parameter to an Order, defaulting to newest
// for empty or unknown values.
func ParseOrder(s string) Order {
	switch Order(s) {
	case OrderOldest, OrderLangAsc, OrderLangDesc:
		return Order(s)
	default:
		return OrderNewest
	}
}

// Search filters snippets and returns them in the requested order.
//
// A non-empty q matches case-insensitively as a substring of Code or
// Filename; a non-empty lang matches Language by case-insensitive
// equality. Both predicates are ANDed; an empty value disables its
// filter, so Search(s, "", "", OrderNewest) returns every record.
//
// The input slice is never mutated and the sort is stable, so equal
// inputs always produce identical output.
func Search(snippets []model.Snippet, q, lang string, order Order) []model.Snippet {
	q = strings.ToLower(q)
	lang = strings.ToLower(lang)

	matched := make([]model.Snippet, 0, len(snippets))
	for _, snip := range snippets {
		if q != "" &&
			!strings.Contains(strings.ToLower(snip.Code), q) &&
			!strings.Contains(strings.ToLower(snip.Filename), q) {
			continue
		}
		if lang != "" && strings.ToLower(snip.Language) != lang {
			continue
		}
		matched = append(matched, snip)
	}

	// Newest-first is the base order; the language sorts tie-break on it
	// because SliceStable preserves it within equal languages.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Filename > matched[j].Filename
	})

	switch order {
	case OrderOldest:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Filename < matched[j].Filename
		})
	case OrderLangAsc:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Language < matched[j].Language
		})
	case OrderLangDesc:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Language > matched[j].Language
		})
	}

	return matched
}
