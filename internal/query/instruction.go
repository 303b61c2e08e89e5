package query

import (
	"fmt"

	"github.com/roach88/fspquery/internal/ir"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 100
)

// Instruction is a parsed filter/sort/page request.
type Instruction struct {
	PageNumber    int        `json:"page" yaml:"page"`
	PageSize      int        `json:"pageSize" yaml:"pageSize"`
	SortPath      string     `json:"sort,omitempty" yaml:"sort,omitempty"`
	SortDirection Direction  `json:"order" yaml:"order"`
	Filters       *FilterSet `json:"filters" yaml:"filters"`
}

// NewInstruction returns an instruction holding the defaults: page 1, page
// size 100, ascending, no sort path and no filters.
func NewInstruction() *Instruction {
	return &Instruction{
		PageNumber:    DefaultPageNumber,
		PageSize:      DefaultPageSize,
		SortDirection: Ascending,
		Filters:       &FilterSet{},
	}
}

// Skip is the number of records before the requested page.
// It is negative when PageNumber is below 1; sources treat that as zero.
func (i *Instruction) Skip() int {
	return i.PageSize * (i.PageNumber - 1)
}

// Take is the number of records on one page.
func (i *Instruction) Take() int {
	return i.PageSize
}

// Document returns the instruction as a plain map for canonical encoding.
func (i *Instruction) Document() map[string]any {
	filters := make([]any, 0, i.Filters.Len())
	for _, c := range i.Filters.Conditions() {
		value, ok := ir.FromGo(c.Value)
		if !ok {
			value = ir.String(fmt.Sprint(c.Value))
		}
		filters = append(filters, map[string]any{
			"path":       c.Path,
			"operator":   c.Operator.String(),
			"value":      value,
			"ignoreCase": c.IgnoreCase,
		})
	}
	return map[string]any{
		"page":     i.PageNumber,
		"pageSize": i.PageSize,
		"sort":     i.SortPath,
		"order":    i.SortDirection.String(),
		"filters":  filters,
	}
}

// Fingerprint is a stable content hash of the instruction. Two instructions
// with the same page, sort and filters in the same order share a fingerprint.
func (i *Instruction) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainInstruction, i.Document())
}
