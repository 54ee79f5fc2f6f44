// Package enriched implements the enriched-document state bag (§4.9): a
// tree of string->value maps addressed by JSON path (`/document/field`,
// `/document/pages/*/text`), backed by tidwall/gjson+sjson+match the same
// way Tangerg-lynx/ai's document/media model leans on them for JSON-path
// reads/writes over a loosely-typed payload.
package enriched

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"github.com/tidwall/sjson"
)

// Doc is one document's enrichment state, serialized internally as JSON so
// gjson/sjson's path grammar (including wildcards) applies directly.
type Doc struct {
	raw []byte
}

// New builds an enriched document seeded with the given top-level fields
// (§4.12 step 4b "seed the enriched doc with key, content, storage metadata,
// cracked metadata").
func New(seed map[string]any) (*Doc, error) {
	body, err := json.Marshal(map[string]any{"document": orEmpty(seed)})
	if err != nil {
		return nil, err
	}
	return &Doc{raw: body}, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// Get returns the value at path, or (nil, false) if nothing matches
// (§4.9 "get(path) -> value | null (first match)").
func (d *Doc) Get(path string) (any, bool) {
	res := gjson.GetBytes(d.raw, gjsonPath(path))
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// GetAll returns every value matching path, resolving wildcards along the
// way (§4.9 "get_all(path) -> iterator (all matches for wildcards)").
func (d *Doc) GetAll(path string) []any {
	if !hasWildcard(path) {
		v, ok := d.Get(path)
		if !ok {
			return nil
		}
		return []any{v}
	}
	var out []any
	for _, p := range d.expandWildcard(path) {
		if v, ok := d.Get(p); ok {
			out = append(out, v)
		}
	}
	return out
}

// Set writes value at path, creating intermediate maps/lists as needed
// (§4.9 "set(path, value) (creating intermediate maps and lists as
// needed)"). sjson already creates intermediate structure on demand.
func (d *Doc) Set(path string, value any) error {
	body, err := sjson.SetBytes(d.raw, gjsonPath(path), value)
	if err != nil {
		return err
	}
	d.raw = body
	return nil
}

// MatchingContexts resolves a (possibly wildcard) context path to every
// concrete path it matches, used by skills whose context is a wildcard
// (§4.9 "matching_contexts(context_path) -> iterator of paths", §4.10
// "iterates over the contexts that match its context path").
func (d *Doc) MatchingContexts(contextPath string) []string {
	if !hasWildcard(contextPath) {
		if _, ok := d.Get(contextPath); ok {
			return []string{contextPath}
		}
		return nil
	}
	return d.expandWildcard(contextPath)
}

// expandWildcard walks the document tree segment by segment, expanding a
// single "*" segment into every sibling key/index present at that point.
func (d *Doc) expandWildcard(path string) []string {
	segs := splitPath(path)
	var frontier []string
	frontier = append(frontier, "")
	for _, seg := range segs {
		var next []string
		for _, base := range frontier {
			if seg != "*" && !match.IsPattern(seg) {
				next = append(next, joinPath(base, seg))
				continue
			}
			res := gjson.GetBytes(d.raw, gjsonPath(base))
			if !res.Exists() {
				continue
			}
			if res.IsArray() {
				i := 0
				res.ForEach(func(_, _ gjson.Result) bool {
					next = append(next, joinPath(base, itoa(i)))
					i++
					return true
				})
			} else if res.IsObject() {
				res.ForEach(func(k, _ gjson.Result) bool {
					key := k.String()
					if match.Match(key, seg) {
						next = append(next, joinPath(base, key))
					}
					return true
				})
			}
		}
		frontier = next
	}
	return frontier
}

func hasWildcard(path string) bool {
	for _, seg := range splitPath(path) {
		if seg == "*" || match.IsPattern(seg) {
			return true
		}
	}
	return false
}

func splitPath(path string) []string {
	var segs []string
	cur := ""
	for _, r := range path {
		if r == '/' {
			if cur != "" {
				segs = append(segs, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		segs = append(segs, cur)
	}
	return segs
}

func joinPath(base, seg string) string {
	if base == "" {
		return seg
	}
	return base + "." + seg
}

// gjsonPath turns a spec-style slash path ("/document/pages/0/text") into
// gjson/sjson's dot-separated path grammar.
func gjsonPath(path string) string {
	segs := splitPath(path)
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

// JSON returns the document's current serialized state, used by tests and
// by the indexer runtime to read back top-level document fields.
func (d *Doc) JSON() []byte {
	return d.raw
}
