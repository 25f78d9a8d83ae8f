package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// PgVector is a float64 slice stored in a PostgreSQL VECTOR column. It
// implements sql.Scanner and driver.Valuer against the text format
// "[1,2,3]".
type PgVector []float64

// NewPgVector copies floats into a PgVector so later mutations of the source
// slice have no effect.
func NewPgVector(floats []float64) PgVector {
	cp := make(PgVector, len(floats))
	copy(cp, floats)
	return cp
}

// Floats returns the vector as a plain []float64 copy.
func (v PgVector) Floats() []float64 {
	if v == nil {
		return nil
	}
	cp := make([]float64, len(v))
	copy(cp, v)
	return cp
}

// Dimension returns the number of elements.
func (v PgVector) Dimension() int {
	return len(v)
}

// Scan implements sql.Scanner for the PostgreSQL vector text format.
func (v *PgVector) Scan(value any) error {
	if value == nil {
		*v = nil
		return nil
	}

	var raw string
	switch val := value.(type) {
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into PgVector", value)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if raw == "" {
		*v = PgVector{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(PgVector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parse element %d: %w", i, err)
		}
		out[i] = f
	}

	*v = out
	return nil
}

// Value implements driver.Valuer.
func (v PgVector) Value() (driver.Value, error) {
	return v.String(), nil
}

// String returns the PostgreSQL vector literal "[1,2,3]".
func (v PgVector) String() string {
	var b strings.Builder
	b.Grow(len(v)*12 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
