package catalog

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/liliang-cn/searchsim/internal/errs"
)

// indexNamePattern is the §3 index-name invariant: 2-128 chars, lowercase,
// starting with a letter.
var indexNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// structValidate runs github.com/go-playground/validator's struct-tag pass
// (`required` on Field.Name and Field.Type) ahead of the handwritten
// cross-field invariant checks below, matching the validator's own advertised
// use: catch the mechanical stuff declaratively, keep the domain rules in code.
var structValidate = validator.New(validator.WithRequiredStructEnabled())

// ValidateIndexDef checks every invariant in §3 "Index definition" and
// "Field", collecting every violation instead of stopping at the first
// (§7 "a failed validation produces ValidationFailed with every error
// collected, not short-circuited").
func ValidateIndexDef(d IndexDef) error {
	var fields []errs.FieldError

	if len(d.Name) < 2 || len(d.Name) > 128 {
		fields = append(fields, errs.FieldError{Field: "name", Message: "must be 2-128 characters"})
	} else if !indexNamePattern.MatchString(d.Name) {
		fields = append(fields, errs.FieldError{Field: "name", Message: "must match ^[a-z][a-z0-9-]*$"})
	}

	if len(d.Fields) == 0 {
		fields = append(fields, errs.FieldError{Field: "fields", Message: "at least one field is required"})
	}

	seen := map[string]bool{}
	keyCount := 0
	for _, f := range d.Fields {
		lower := toLower(f.Name)
		if seen[lower] {
			fields = append(fields, errs.FieldError{Field: "fields." + f.Name, Message: "duplicate field name (case-insensitive)"})
		}
		seen[lower] = true

		if err := structValidate.Struct(f); err != nil {
			fields = append(fields, errs.FieldError{Field: "fields." + f.Name, Message: err.Error()})
		}

		if f.Key {
			keyCount++
			if f.Type != TypeString {
				fields = append(fields, errs.FieldError{Field: "fields." + f.Name, Message: "key field must be Edm.String"})
			}
		}
		fields = append(fields, validateFieldFlags(f)...)
	}
	if keyCount != 1 {
		fields = append(fields, errs.FieldError{Field: "fields", Message: fmt.Sprintf("exactly one key field is required, found %d", keyCount)})
	}

	if d.DefaultScoringProfile != "" {
		if _, ok := findProfile(d.ScoringProfiles, d.DefaultScoringProfile); !ok {
			fields = append(fields, errs.FieldError{Field: "defaultScoringProfile", Message: "references an undefined scoring profile"})
		}
	}
	for _, p := range d.ScoringProfiles {
		fields = append(fields, validateScoringProfile(d, p)...)
	}

	for _, f := range d.Fields {
		// A field declaring either vector attribute is checked, so that
		// zero or negative dimensions are reported instead of silently
		// making the field a non-vector one.
		if f.IsVector() || f.Dimensions != 0 || f.VectorSearchProfile != "" {
			if f.Dimensions < 1 || f.Dimensions > 3072 {
				fields = append(fields, errs.FieldError{Field: "fields." + f.Name, Message: "vector dimensions must be between 1 and 3072"})
			}
			if _, ok := d.VectorSearch.AlgorithmFor(f.VectorSearchProfile); !ok {
				fields = append(fields, errs.FieldError{Field: "fields." + f.Name, Message: "references an undefined vector-search profile"})
			}
		}
	}

	for _, s := range d.Suggesters {
		for _, src := range s.SourceFields {
			sf, ok := d.FieldByName(src)
			if !ok {
				fields = append(fields, errs.FieldError{Field: "suggesters." + s.Name, Message: "source field " + src + " does not exist"})
				continue
			}
			if sf.Type != TypeString {
				fields = append(fields, errs.FieldError{Field: "suggesters." + s.Name, Message: "source field " + src + " must be Edm.String"})
			}
		}
	}

	if len(fields) > 0 {
		return errs.Validation("catalog.ValidateIndexDef", fields)
	}
	return nil
}

// validateFieldFlags enforces the §3 Field flag/type compatibility invariant.
func validateFieldFlags(f Field) []errs.FieldError {
	var out []errs.FieldError
	if f.Searchable && !f.Type.IsStringLike() {
		out = append(out, errs.FieldError{Field: "fields." + f.Name, Message: "only string-like types may be searchable"})
	}
	if f.Sortable && IsCollection(f.Type) {
		out = append(out, errs.FieldError{Field: "fields." + f.Name, Message: "collections may not be sortable"})
	}
	if f.Type == TypeComplex {
		if f.Filterable || f.Sortable {
			out = append(out, errs.FieldError{Field: "fields." + f.Name, Message: "complex fields are neither filterable nor sortable"})
		}
	}
	if f.IsVector() && f.Searchable {
		out = append(out, errs.FieldError{Field: "fields." + f.Name, Message: "vector fields are never searchable"})
	}
	return out
}

// validateScoringProfile enforces §3 Scoring profile invariants: boost != 0
// and != 1, interpolation allowed per type, and the scoring field must be
// filterable and type-compatible.
func validateScoringProfile(d IndexDef, p ScoringProfile) []errs.FieldError {
	var out []errs.FieldError
	for _, fn := range p.Functions {
		loc := "scoringProfiles." + p.Name + "." + string(fn.Type)
		if fn.Boost == 0 || fn.Boost == 1.0 {
			out = append(out, errs.FieldError{Field: loc, Message: "boost must be non-zero and not equal to 1.0"})
		}
		if fn.Type == FuncTag {
			if fn.Interpolation != InterpLinear && fn.Interpolation != InterpConstant && fn.Interpolation != "" {
				out = append(out, errs.FieldError{Field: loc, Message: "tag functions only allow linear or constant interpolation"})
			}
		}
		sf, ok := d.FieldByName(fn.FieldName)
		if !ok {
			out = append(out, errs.FieldError{Field: loc, Message: "references an undefined field " + fn.FieldName})
			continue
		}
		if !sf.Filterable {
			out = append(out, errs.FieldError{Field: loc, Message: "scoring function field must be filterable"})
		}
		switch fn.Type {
		case FuncFreshness:
			if sf.Type != TypeDateTimeOffset {
				out = append(out, errs.FieldError{Field: loc, Message: "freshness requires an Edm.DateTimeOffset field"})
			}
		case FuncMagnitude:
			if sf.Type != TypeDouble && sf.Type != TypeInt32 && sf.Type != TypeInt64 && sf.Type != TypeSingle {
				out = append(out, errs.FieldError{Field: loc, Message: "magnitude requires a numeric field"})
			}
		case FuncDistance:
			if sf.Type != TypeGeographyPoint {
				out = append(out, errs.FieldError{Field: loc, Message: "distance requires an Edm.GeographyPoint field"})
			}
		case FuncTag:
			if sf.Type != TypeString && CollectionElem(sf.Type) != TypeString {
				out = append(out, errs.FieldError{Field: loc, Message: "tag requires a string or Collection(Edm.String) field"})
			}
		}
	}
	if p.Aggregation != "" {
		switch p.Aggregation {
		case AggSum, AggAverage, AggMinimum, AggMaximum, AggFirstMatching:
		default:
			out = append(out, errs.FieldError{Field: "scoringProfiles." + p.Name, Message: "invalid aggregation"})
		}
	}
	return out
}

func findProfile(profiles []ScoringProfile, name string) (ScoringProfile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return ScoringProfile{}, false
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
