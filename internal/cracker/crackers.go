package cracker

import (
	"encoding/csv"
	"encoding/json"
	"regexp"
	"strings"
)

type textCracker struct{}

func (textCracker) Crack(data []byte) (Result, error) {
	return Result{Content: string(data)}, nil
}

type jsonCracker struct{}

func (jsonCracker) Crack(data []byte) (Result, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Result{Content: string(data)}, nil
	}
	return Result{Content: string(data), Metadata: map[string]any{"json": v}}, nil
}

var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)
var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

type htmlCracker struct{}

func (htmlCracker) Crack(data []byte) (Result, error) {
	s := string(data)
	meta := map[string]any{}
	if m := titlePattern.FindStringSubmatch(s); len(m) == 2 {
		meta["title"] = strings.TrimSpace(m[1])
	}
	text := tagPattern.ReplaceAllString(s, " ")
	text = strings.Join(strings.Fields(text), " ")
	return Result{Content: text, Metadata: meta}, nil
}

type xmlCracker struct{}

func (xmlCracker) Crack(data []byte) (Result, error) {
	s := string(data)
	text := tagPattern.ReplaceAllString(s, " ")
	text = strings.Join(strings.Fields(text), " ")
	return Result{Content: text}, nil
}

type csvCracker struct{}

func (csvCracker) Crack(data []byte) (Result, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		return Result{Content: string(data)}, nil
	}
	header := rows[0]
	var lines []string
	for _, row := range rows[1:] {
		lines = append(lines, strings.Join(row, " "))
	}
	return Result{
		Content:  strings.Join(lines, "\n"),
		Metadata: map[string]any{"columns": header, "rowCount": len(rows) - 1},
	}, nil
}

// binaryStubCracker handles formats that need a real parser library
// (pdf/ooxml/rtf) this pack never imports: no PDF or OOXML cracker appears
// in any retrieved example repo, so these report their detected content
// type with empty content rather than fabricating a parsing dependency
// (documented gap, see DESIGN.md).
type binaryStubCracker struct {
	contentType ContentType
}

func (c binaryStubCracker) Crack(data []byte) (Result, error) {
	return Result{
		Content:  "",
		Metadata: map[string]any{"contentType": string(c.contentType), "byteLength": len(data)},
	}, nil
}
