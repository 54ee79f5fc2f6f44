// Package cracker implements content cracking for the indexer runtime and
// the DocumentExtraction skill (§4.10, §4.12 step 4a): given raw bytes, it
// detects a content type and extracts textual content plus metadata.
// Magic-byte/content-sample detection is grounded on
// Tangerg-lynx/pkg/mime/utils.go's use of gabriel-vasile/mimetype, which
// this pack already depends on; the crackers themselves (text/json/html/
// xml/csv, with pdf/ooxml/rtf as minimal stubs) are original work, since no
// document-cracking library appears in the retrieved example pack beyond
// content-type sniffing.
package cracker

import (
	"encoding/csv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ContentType is a coarse content family a Cracker is registered for.
type ContentType string

const (
	ContentText ContentType = "text/plain"
	ContentJSON ContentType = "application/json"
	ContentHTML ContentType = "text/html"
	ContentXML  ContentType = "application/xml"
	ContentCSV  ContentType = "text/csv"
	ContentPDF  ContentType = "application/pdf"
	ContentOOXML ContentType = "application/vnd.openxmlformats"
	ContentRTF  ContentType = "application/rtf"
)

// Result is the cracked content for one document (§4.12 step 4a).
type Result struct {
	Content  string
	Metadata map[string]any
}

// Cracker extracts text and metadata from raw bytes of one detected
// content type.
type Cracker interface {
	Crack(data []byte) (Result, error)
}

// Detect identifies the content family of data, preferring the magic-byte
// sniff from mimetype.Detect and falling back to a structural sample check
// for formats mimetype doesn't distinguish from plain text (JSON/HTML/XML/
// CSV), mirroring the spec's "content-type is detected from magic bytes
// ... or from a text sample" rule (§4.10 DocumentExtraction).
func Detect(data []byte) ContentType {
	m := mimetype.Detect(data)
	switch {
	case m.Is("application/pdf"):
		return ContentPDF
	case m.Is("application/rtf"), strings.HasPrefix(m.String(), "text/rtf"):
		return ContentRTF
	case strings.Contains(m.String(), "officedocument"), m.Is("application/zip"):
		return ContentOOXML
	}
	if looksLikeJSON(data) {
		return ContentJSON
	}
	if looksLikeXML(data) {
		return ContentXML
	}
	if looksLikeHTML(data) {
		return ContentHTML
	}
	if looksLikeCSV(data) {
		return ContentCSV
	}
	return ContentText
}

func looksLikeJSON(data []byte) bool {
	s := strings.TrimSpace(string(data))
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

func looksLikeXML(data []byte) bool {
	s := strings.TrimSpace(string(data))
	return strings.HasPrefix(s, "<?xml")
}

func looksLikeHTML(data []byte) bool {
	lower := strings.ToLower(string(data))
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype html")
}

func looksLikeCSV(data []byte) bool {
	s := string(data)
	lines := strings.SplitN(s, "\n", 3)
	if len(lines) < 2 {
		return false
	}
	r := csv.NewReader(strings.NewReader(s))
	r.FieldsPerRecord = -1
	first, err := r.Read()
	if err != nil || len(first) < 2 {
		return false
	}
	second, err := r.Read()
	return err == nil && len(second) == len(first)
}

// For selects a Cracker for a detected content type (§4.12 step 4a).
func For(ct ContentType) Cracker {
	switch ct {
	case ContentJSON:
		return jsonCracker{}
	case ContentHTML:
		return htmlCracker{}
	case ContentXML:
		return xmlCracker{}
	case ContentCSV:
		return csvCracker{}
	case ContentPDF, ContentOOXML, ContentRTF:
		return binaryStubCracker{contentType: ct}
	default:
		return textCracker{}
	}
}
