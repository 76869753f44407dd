package record

import (
	"github.com/goccy/go-json"
)

type definitionJSON struct {
	Columns []Column `json:"columns"`
}

// MarshalJSON encodes the columns.
func (d *Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal(definitionJSON{Columns: d.columns})
}

// UnmarshalJSON decodes and validates columns. It is only meant for decoding into a fresh
// Definition.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var raw definitionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := NewDefinition(raw.Columns...)
	if err != nil {
		return err
	}
	*d = *parsed

	return nil
}
