package codec

import (
	"fmt"
	"math/bits"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"github.com/arloliu/bitrec/errs"
	"github.com/arloliu/bitrec/record"
	"github.com/arloliu/bitrec/ucode"
)

// PlanVersion is the version written to plan files.
const PlanVersion = 1

// ColumnPlan is the code choice for one column.
//
// Symbols of a column are laid out as [null] [escape] [ordinal-Offset ...]: nullable
// columns reserve symbol 0 for null, every column reserves symbol Reserved-1 as the
// escape, and value ordinals follow. Ordinals below Offset or above Offset+Limit are
// written as the escape followed by the raw 64-bit ordinal.
type ColumnPlan struct {
	Name     string     `json:"name"`
	Code     ucode.Spec `json:"code"`
	Offset   uint64     `json:"offset"`
	Limit    uint64     `json:"limit"`
	Reserved uint64     `json:"reserved"`
}

// ReservedSymbols returns the number of reserved symbols for a column.
func ReservedSymbols(col record.Column) uint64 {
	if col.Nullable {
		return 2
	}

	return 1
}

// Plan binds a record definition to per-column codes. It is immutable.
type Plan struct {
	def     *record.Definition
	columns []ColumnPlan
	codes   []ucode.Code
}

// NewPlan validates cols against def and resolves their codes.
func NewPlan(def *record.Definition, cols []ColumnPlan) (*Plan, error) {
	if def == nil {
		return nil, fmt.Errorf("nil definition: %w", errs.ErrInvalidPlan)
	}
	if len(cols) != def.Len() {
		return nil, fmt.Errorf("%d column plans for %d columns: %w", len(cols), def.Len(), errs.ErrInvalidPlan)
	}

	p := &Plan{def: def, columns: make([]ColumnPlan, len(cols)), codes: make([]ucode.Code, len(cols))}
	for i, cp := range cols {
		col := def.Column(i)
		if cp.Name != col.Name {
			return nil, fmt.Errorf("column %d plan %q for %q: %w", i, cp.Name, col.Name, errs.ErrInvalidPlan)
		}
		if want := ReservedSymbols(col); cp.Reserved != want {
			return nil, fmt.Errorf("column %q reserves %d symbols, want %d: %w", col.Name, cp.Reserved, want, errs.ErrInvalidPlan)
		}

		code, err := ucode.FromSpec(cp.Code)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		if !ucode.InDomain(code, cp.Reserved-1) {
			return nil, fmt.Errorf("column %q code %s cannot hold its reserved symbols: %w", col.Name, cp.Code, errs.ErrInvalidPlan)
		}
		if top, carry := bits.Add64(cp.Reserved, cp.Limit, 0); carry != 0 || !ucode.InDomain(code, top) {
			return nil, fmt.Errorf("column %q code %s cannot hold limit %d: %w", col.Name, cp.Code, cp.Limit, errs.ErrInvalidPlan)
		}

		p.columns[i] = cp
		p.codes[i] = code
	}

	return p, nil
}

// Definition returns the record definition.
func (p *Plan) Definition() *record.Definition { return p.def }

// Len returns the number of columns.
func (p *Plan) Len() int { return len(p.columns) }

// Column returns the plan of column i.
func (p *Plan) Column(i int) ColumnPlan { return p.columns[i] }

// Columns returns a copy of the column plans.
func (p *Plan) Columns() []ColumnPlan { return append([]ColumnPlan(nil), p.columns...) }

// Code returns the resolved code of column i.
func (p *Plan) Code(i int) ucode.Code { return p.codes[i] }

// Fingerprint hashes the plan's JSON form. Stats files record it to detect a plan change.
func (p *Plan) Fingerprint() uint64 {
	data, err := json.Marshal(p)
	if err != nil {
		return 0
	}

	return xxhash.Sum64(data)
}

// Equal reports whether both plans describe the same layout and codes.
func (p *Plan) Equal(other *Plan) bool {
	if other == nil || !p.def.Equal(other.def) || len(p.columns) != len(other.columns) {
		return false
	}
	for i := range p.columns {
		a, b := p.columns[i], other.columns[i]
		if a.Offset != b.Offset || a.Limit != b.Limit || a.Reserved != b.Reserved || !p.codes[i].Equal(other.codes[i]) {
			return false
		}
	}

	return true
}

type planJSON struct {
	Version    int                `json:"version"`
	Definition *record.Definition `json:"definition"`
	Columns    []ColumnPlan       `json:"columns"`
}

// MarshalJSON encodes the plan with its version.
func (p *Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(planJSON{Version: PlanVersion, Definition: p.def, Columns: p.columns})
}

// UnmarshalJSON decodes and validates a plan.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var raw planJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Version != PlanVersion {
		return fmt.Errorf("plan version %d: %w", raw.Version, errs.ErrInvalidVersion)
	}

	parsed, err := NewPlan(raw.Definition, raw.Columns)
	if err != nil {
		return err
	}
	*p = *parsed

	return nil
}

// Save writes the plan as indented JSON.
func (p *Plan) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.IO("Plan.Save", path, err)
	}

	return nil
}

// LoadPlan reads a plan written by Save.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("LoadPlan", path, err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}

	return &p, nil
}
