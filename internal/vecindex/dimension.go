package vecindex

import (
	"github.com/liliang-cn/searchsim/internal/errs"
)

// minDimension and maxDimension bound a vector field's configured dimension
// (§11.1 "dimension adapter", added by the expansion beyond spec.md's bare
// "dimensions" field: Azure AI Search rejects vector fields outside
// [1, 3072], and the catalog validator enforces the same range at index
// creation time via internal/catalog.ValidateIndexDef).
const (
	minDimension = 1
	maxDimension = 3072
)

// errDimMismatch reports a query or document vector whose length does not
// equal the field's configured dimension. Dimension mismatches are a request
// error (ValidationFailed), never a panic or silent truncation.
func errDimMismatch(want, got int) error {
	return errs.Newf("vecindex", errs.ValidationFailed,
		"vector length %d does not match field dimension %d", got, want)
}

// ValidDimension reports whether d falls within the supported range.
// internal/catalog.ValidateIndexDef checks the same 1–3072 bound with its own
// literals and does not call this function.
func ValidDimension(d int) bool {
	return d >= minDimension && d <= maxDimension
}
