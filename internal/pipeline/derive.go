package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pxndameong/era5-month-excel/internal/table"
)

// Kind is the transformation a Rule applies.
type Kind int

const (
	Rename Kind = iota
	Negate
	Scale
)

// ParseKind accepts "rename", "negate" or "scale".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rename":
		return Rename, nil
	case "negate":
		return Negate, nil
	case "scale":
		return Scale, nil
	}
	return 0, fmt.Errorf("unknown rule kind %q", s)
}

func (k Kind) String() string {
	switch k {
	case Negate:
		return "negate"
	case Scale:
		return "scale"
	}
	return "rename"
}

// Rule derives Output from Source and removes Source.
type Rule struct {
	Source string
	Kind   Kind
	// Factor is used by Scale only.
	Factor float64
	Output string
}

// DefaultRules turns the moisture flux divergence into a convergence and
// total precipitation from metres into millimetres. Daily downloads name the
// divergence vimdf, monthly ones viwvd.
func DefaultRules() []Rule {
	return []Rule{
		{Source: "vimdf", Kind: Negate, Output: "vimfc"},
		{Source: "viwvd", Kind: Negate, Output: "vimfc"},
		{Source: "tp", Kind: Scale, Factor: 1000, Output: "tp_sum"},
	}
}

func (r Rule) validate() error {
	if r.Source == "" || r.Output == "" {
		return errors.New("source and output are required")
	}
	if r.Kind == Scale && r.Factor == 0 {
		return fmt.Errorf("scale rule for %q needs a non-zero factor", r.Source)
	}
	return nil
}

func (r Rule) apply(v float64) float64 {
	switch r.Kind {
	case Negate:
		return -v
	case Scale:
		return v * r.Factor
	}
	return v
}

// Derive applies rules in order. A rule whose source column is absent is
// skipped. An existing output column is overwritten; otherwise the output is
// appended. It returns the rules that were applied.
func Derive(t *table.Table, rules []Rule) []Rule {
	var applied []Rule
	for _, r := range rules {
		src, ok := t.ColumnIndex(r.Source)
		if !ok {
			continue
		}
		applied = append(applied, r)

		if r.Output == r.Source {
			for i := range t.Rows {
				t.Rows[i].Values[src] = r.apply(t.Rows[i].Values[src])
			}
			continue
		}
		if r.Kind == Rename && !t.HasColumn(r.Output) {
			// cannot fail: source exists and output does not
			_ = t.RenameColumn(r.Source, r.Output)
			continue
		}

		dst := t.AddColumn(r.Output)
		for i := range t.Rows {
			vs := t.Rows[i].Values
			vs[dst] = r.apply(vs[src])
		}
		t.DropColumn(r.Source)
	}
	return applied
}
