package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/fspquery/internal/query"
)

// Reserved keys.
const (
	KeyPage     = "page"
	KeyPageSize = "pagesize"
	KeyOrder    = "order"
	KeySort     = "sort"
)

// Pair is one query parameter with every value given for its key.
type Pair struct {
	Key    string
	Values []string
}

// ParseError reports why a query could not be parsed.
type ParseError struct {
	Key     string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// IsParseError checks if an error is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// prefix maps a key prefix to its operator.
type prefix struct {
	code string
	op   query.Operator
}

// prefixes is matched in order and the first match wins. No code is a
// prefix of another, so the order only matters for readability.
var prefixes = []prefix{
	{"eq^", query.Equals},
	{"!eq^", query.NotEquals},
	{"in^", query.Contains},
	{"!in^", query.NotContains},
	{"pre^", query.StartsWith},
	{"!pre^", query.NotStartsWith},
	{"end^", query.EndsWith},
	{"!end^", query.NotEndsWith},
	{"gt^", query.GreaterThan},
	{"!gt^", query.NotGreaterThan},
	{"gte^", query.GreaterThanOrEqual},
	{"!gte^", query.NotGreaterThanOrEqual},
	{"lt^", query.LessThan},
	{"!lt^", query.NotLessThan},
	{"lte^", query.LessThanOrEqual},
	{"!lte^", query.NotLessThanOrEqual},
}

// Prefix returns the key prefix for op, or "" for Equals and Undefined.
func Prefix(op query.Operator) string {
	if op == query.Equals {
		return ""
	}
	for _, p := range prefixes {
		if p.op == op {
			return p.code
		}
	}
	return ""
}

// SplitKey separates a filter key into its property path and operator.
// A key without a known prefix is an Equals filter on the whole key.
func SplitKey(key string) (string, query.Operator) {
	for _, p := range prefixes {
		if len(key) >= len(p.code) && strings.EqualFold(key[:len(p.code)], p.code) {
			return key[len(p.code):], p.op
		}
	}
	return key, query.Equals
}

// Parse builds an instruction from pairs, processed in order.
//
// Defaults (page 1, page size 100, ascending, no sort, no filters) are set
// before the first pair is read. Each key must carry at most one value.
func Parse(pairs []Pair) (*query.Instruction, error) {
	ins := query.NewInstruction()
	for _, pair := range pairs {
		if err := apply(ins, pair); err != nil {
			return nil, err
		}
	}
	return ins, nil
}

func apply(ins *query.Instruction, pair Pair) error {
	key := pair.Key
	if key == "" {
		return &ParseError{Key: key, Message: "Invalid or malformed query. Empty property accessor."}
	}
	if len(pair.Values) > 1 {
		return &ParseError{Key: key, Message: fmt.Sprintf("Invalid or malformed query. Duplicate entry found for property accessor %q.", key)}
	}
	var value string
	if len(pair.Values) == 1 {
		value = pair.Values[0]
	}

	switch {
	case strings.EqualFold(key, KeyPage):
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		ins.PageNumber = n
	case strings.EqualFold(key, KeyPageSize):
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		ins.PageSize = n
	case strings.EqualFold(key, KeyOrder):
		dir, err := query.ParseDirection(value)
		if err != nil {
			return &ParseError{Key: key, Message: fmt.Sprintf("Invalid or malformed value for %q. Acceptable values are \"asc\" and \"desc\".", key)}
		}
		ins.SortDirection = dir
	case strings.EqualFold(key, KeySort):
		ins.SortPath = value
	default:
		path, op := SplitKey(key)
		if path == "" {
			return &ParseError{Key: key, Message: fmt.Sprintf("Invalid or malformed query. Missing property accessor after %q.", key)}
		}
		if err := ins.Filters.Add(query.NewFilterCondition(path, op, value)); err != nil {
			return &ParseError{Key: key, Message: fmt.Sprintf("Invalid or malformed value for %q. Conflicting filter with property accessor %q.", key, path)}
		}
	}
	return nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ParseError{Key: key, Message: fmt.Sprintf("Invalid or malformed value for property accessor %q. Not an integer value.", key)}
	}
	return n, nil
}
