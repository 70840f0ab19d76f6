package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMalformedDataset means the document is not valid structured data.
	ErrMalformedDataset = errors.New("malformed dataset")
	// ErrMissingField means a required top-level field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrDuplicateDaneCode means two municipalities share a DANE code.
	ErrDuplicateDaneCode = errors.New("duplicate dane code")
)

// rawDataset distinguishes an absent "municipios" key from an empty list.
type rawDataset struct {
	Metadata      *Metadata                   `json:"metadata"`
	Municipios    *[]MunicipalityRecord       `json:"municipios"`
	Departamentos []DepartmentAggregateRecord `json:"departamentos"`
}

// DecodeDataset reads and validates a prediction document. Bare NaN and
// Infinity tokens, which Python's json module writes for missing floats, are
// read as null.
func DecodeDataset(r io.Reader) (Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset is DecodeDataset over an in-memory document.
func ParseDataset(data []byte) (Dataset, error) {
	var raw rawDataset
	if err := json.Unmarshal(sanitizeNonFinite(data), &raw); err != nil {
		return Dataset{}, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
	}
	if raw.Municipios == nil {
		return Dataset{}, fmt.Errorf("%w: municipios", ErrMissingField)
	}

	ds := Dataset{
		Municipios:    *raw.Municipios,
		Departamentos: raw.Departamentos,
	}
	if raw.Metadata != nil {
		ds.Metadata = *raw.Metadata
	}

	if err := ValidateDataset(ds); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// ValidateDataset checks dataset-wide invariants that the indexes rely on.
func ValidateDataset(ds Dataset) error {
	seen := make(map[int]string, len(ds.Municipios))
	for _, m := range ds.Municipios {
		if prev, ok := seen[m.DaneCode]; ok {
			return fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateDaneCode, m.DaneCode, prev, m.Name)
		}
		seen[m.DaneCode] = m.Name
	}
	return nil
}

var nonFiniteTokens = [][]byte{
	[]byte("-Infinity"),
	[]byte("Infinity"),
	[]byte("NaN"),
}

// sanitizeNonFinite rewrites NaN, Infinity and -Infinity outside string
// literals to null. Valid JSON never has these byte sequences outside a
// string, so the rewrite cannot change a well-formed document.
func sanitizeNonFinite(data []byte) []byte {
	if !bytes.Contains(data, []byte("NaN")) && !bytes.Contains(data, []byte("Infinity")) {
		return data
	}

	out := make([]byte, 0, len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if tok := matchNonFinite(data[i:]); tok > 0 {
			out = append(out, "null"...)
			i += tok - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchNonFinite(rest []byte) int {
	for _, tok := range nonFiniteTokens {
		if bytes.HasPrefix(rest, tok) {
			return len(tok)
		}
	}
	return 0
}
