package parser

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/query"
)

// FromValues converts url.Values to pairs with keys in sorted order, so the
// same values always parse the same way.
func FromValues(values url.Values) []Pair {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Values: values[k]})
	}
	return pairs
}

// SplitRawQuery decodes a raw query string ("page=2&in^name=bo") into pairs.
//
// Keys are grouped ignoring case, like an HTTP query collection, so
// "Page=1&page=2" yields one pair with two values. Pairs keep the order in
// which their key first appears and the spelling it first appeared with.
func SplitRawQuery(raw string) ([]Pair, error) {
	raw = strings.TrimPrefix(raw, "?")

	var pairs []Pair
	index := make(map[string]int)
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, &ParseError{Key: rawKey, Message: fmt.Sprintf("Invalid or malformed query. Cannot decode key %q.", rawKey)}
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, &ParseError{Key: key, Message: fmt.Sprintf("Invalid or malformed value for %q. Cannot decode %q.", key, rawValue)}
		}

		folded := ir.FoldName(key)
		if i, ok := index[folded]; ok {
			pairs[i].Values = append(pairs[i].Values, value)
			continue
		}
		index[folded] = len(pairs)
		pairs = append(pairs, Pair{Key: key, Values: []string{value}})
	}
	return pairs, nil
}

// ParseRawQuery is SplitRawQuery followed by Parse.
func ParseRawQuery(raw string) (*query.Instruction, error) {
	pairs, err := SplitRawQuery(raw)
	if err != nil {
		return nil, err
	}
	return Parse(pairs)
}

// Encode renders an instruction back into a raw query string. Default values
// are omitted. The query string has no way to say IgnoreCase=false, so
// parsing the result yields an equal instruction only for case-insensitive
// filters.
func Encode(ins *query.Instruction) string {
	var parts []string
	add := func(k, v string) {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}

	if ins.PageNumber != query.DefaultPageNumber {
		add(KeyPage, fmt.Sprint(ins.PageNumber))
	}
	if ins.PageSize != query.DefaultPageSize {
		add(KeyPageSize, fmt.Sprint(ins.PageSize))
	}
	if ins.SortPath != "" {
		add(KeySort, ins.SortPath)
	}
	if ins.SortDirection != query.Ascending {
		add(KeyOrder, ins.SortDirection.String())
	}
	for _, c := range ins.Filters.Conditions() {
		value := ""
		if v, ok := ir.FromGo(c.Value); ok && !ir.IsNull(v) {
			value = ir.Format(v)
		}
		add(filterKey(c.Path, c.Operator), value)
	}
	return strings.Join(parts, "&")
}

// filterKey spells the key for a condition. An Equals filter whose path
// would read as a reserved key or a prefixed key gets an explicit "eq^".
func filterKey(path string, op query.Operator) string {
	if op != query.Equals {
		return Prefix(op) + path
	}
	if rest, _ := SplitKey(path); rest != path || isReserved(path) {
		return "eq^" + path
	}
	return path
}

func isReserved(key string) bool {
	for _, r := range []string{KeyPage, KeyPageSize, KeyOrder, KeySort} {
		if strings.EqualFold(key, r) {
			return true
		}
	}
	return false
}
