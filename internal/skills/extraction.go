package skills

import (
	"encoding/base64"
	"fmt"

	"github.com/liliang-cn/searchsim/internal/cracker"
)

// documentExtractionSkill implements DocumentExtraction (§4.10): accepts a
// file reference (inline base64 "data", or a "url" the caller has already
// fetched into "data" — this simulator has no blob storage client to fetch
// a sasToken-protected URL itself), detects its content type via
// internal/cracker, and writes the extracted "content". "normalized_images"
// is always empty: image normalization needs an actual image/PDF renderer,
// which does not exist anywhere in the retrieved pack.
type documentExtractionSkill struct{}

func (documentExtractionSkill) Execute(ctx ExecContext) Result {
	fileRef, ok := ctx.Input("file_data")
	if !ok {
		return fail("configuration error: missing file_data input")
	}
	m, ok := fileRef.(map[string]any)
	if !ok {
		return fail("file_data input is not a file reference object")
	}

	encoded, _ := m["data"].(string)
	if encoded == "" {
		return fail("file reference has no inline data to extract")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fail(fmt.Sprintf("invalid base64 file data: %v", err))
	}

	ct := cracker.Detect(raw)
	res, err := cracker.For(ct).Crack(raw)
	if err != nil {
		return fail(err.Error())
	}

	out := Result{Success: true}
	if err := ctx.SetOutput("content", res.Content); err != nil {
		out.Errors = append(out.Errors, err.Error())
		out.Success = false
	}
	if err := ctx.SetOutput("normalized_images", []any{}); err != nil {
		out.Errors = append(out.Errors, err.Error())
		out.Success = false
	}
	if ct == cracker.ContentPDF || ct == cracker.ContentOOXML {
		out.warn(fmt.Sprintf("content extraction for %s is best-effort: no dedicated parser is available", ct))
	}
	return out
}
