// Package broadcast reconciles scalar-or-array batch inputs into a single
// per-element access plan, NumPy style: a scalar (or length-1 slice) repeats
// across the batch, a longer slice contributes one value per element, and all
// non-scalar slices must agree on one length.
package broadcast

import "fmt"

// ShapeMismatchError reports a slice whose length is incompatible with the
// batch length inferred from the other fields.
type ShapeMismatchError struct {
	Field    string
	Length   int
	Expected int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: field %q has length %d, expected %d", e.Field, e.Length, e.Expected)
}

// Field is one batch input. Scalars are stored as a single backing value with
// stride 0 so element access is branch-free index arithmetic.
type Field struct {
	name   string
	vals   []float64
	bools  []bool
	isBool bool
	stride int
}

// Scalar wraps a single value repeated across the batch.
func Scalar(name string, v float64) Field {
	return Field{name: name, vals: []float64{v}}
}

// Values wraps a per-element slice. The slice is borrowed, not copied; it must
// stay untouched for the duration of the batch call.
func Values(name string, vs []float64) Field {
	return Field{name: name, vals: vs, stride: 1}
}

// ScalarBool wraps a single boolean repeated across the batch.
func ScalarBool(name string, b bool) Field {
	return Field{name: name, bools: []bool{b}, isBool: true}
}

// ValueBools wraps a per-element boolean slice.
func ValueBools(name string, bs []bool) Field {
	return Field{name: name, bools: bs, isBool: true, stride: 1}
}

func (f *Field) len() int {
	if f.isBool {
		return len(f.bools)
	}
	return len(f.vals)
}

// Plan is the reconciled view over a set of fields: one batch length plus a
// 0-or-1 stride per field. Built once per call, read-only afterwards.
type Plan struct {
	length int
	fields []Field
}

// NewPlan infers the batch length from the given fields. Slices of length 1
// demote to scalars. An empty slice forces an empty batch. Construction fails
// with a ShapeMismatchError naming the first incompatible field.
func NewPlan(fields ...Field) (*Plan, error) {
	length := -1
	for i := range fields {
		f := &fields[i]
		if f.stride == 0 {
			continue
		}
		n := f.len()
		if n == 1 {
			f.stride = 0
			continue
		}
		if length == -1 {
			length = n
			continue
		}
		if n != length {
			return nil, &ShapeMismatchError{Field: f.name, Length: n, Expected: length}
		}
	}
	if length == -1 {
		length = 1
	}
	return &Plan{length: length, fields: fields}, nil
}

// Len returns the batch length L. May be zero.
func (p *Plan) Len() int { return p.length }

// Get returns element i of field f. O(1), no allocation.
func (p *Plan) Get(f, i int) float64 {
	fld := &p.fields[f]
	return fld.vals[i*fld.stride]
}

// GetBool returns element i of boolean field f.
func (p *Plan) GetBool(f, i int) bool {
	fld := &p.fields[f]
	return fld.bools[i*fld.stride]
}
