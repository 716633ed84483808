// Package document assembles transcripts into a structured document with
// provenance. The JSON shape keeps the origin block (filename, mimetype,
// content hash) alongside the ordered text items so downstream consumers can
// trace every document back to its source media.
package document

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"scribe/internal/transcript"
)

const (
	// SchemaName identifies the document shape for consumers.
	SchemaName = "scribe.transcript.document"
	// SchemaVersion tracks breaking changes to the JSON layout.
	SchemaVersion = "1.0.0"

	labelText = "text"
)

// Origin records where the document content came from.
type Origin struct {
	Filename   string `json:"filename"`
	Mimetype   string `json:"mimetype"`
	BinaryHash string `json:"binary_hash"`
}

// Text is one ordered content item.
type Text struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Document is the structured transcription result.
type Document struct {
	SchemaName string `json:"schema_name"`
	Version    string `json:"version"`
	Name       string `json:"name"`
	Origin     Origin `json:"origin"`
	Texts      []Text `json:"texts"`
}

// Build assembles a document from transcript items. Items are rendered in the
// order given; a non-empty summary becomes the leading text item.
func Build(filename, mimetype, binaryHash string, items []transcript.Item, summary string) *Document {
	doc := &Document{
		SchemaName: SchemaName,
		Version:    SchemaVersion,
		Name:       stem(filename),
		Origin: Origin{
			Filename:   filename,
			Mimetype:   mimetype,
			BinaryHash: binaryHash,
		},
	}
	if summary = strings.TrimSpace(summary); summary != "" {
		doc.Texts = append(doc.Texts, Text{Label: labelText, Text: "[summary] " + summary})
	}
	for _, item := range items {
		// A blank item still renders its time tag, so filter on the text.
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		rendered := strings.TrimSpace(item.String())
		if rendered == "" {
			continue
		}
		doc.Texts = append(doc.Texts, Text{Label: labelText, Text: rendered})
	}
	return doc
}

func stem(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "transcript"
	}
	return base
}

// JSON renders the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Markdown renders the document as a readable transcript with a provenance
// header.
func (d *Document) Markdown() string {
	var out strings.Builder
	fmt.Fprintf(&out, "# %s\n\n", d.Name)
	fmt.Fprintf(&out, "- Source: %s\n", d.Origin.Filename)
	fmt.Fprintf(&out, "- Type: %s\n", d.Origin.Mimetype)
	fmt.Fprintf(&out, "- Hash: %s\n\n", d.Origin.BinaryHash)
	for _, text := range d.Texts {
		out.WriteString(text.Text)
		out.WriteString("\n\n")
	}
	return out.String()
}

// PlainText renders the text items only, one per line.
func (d *Document) PlainText() string {
	lines := make([]string, 0, len(d.Texts))
	for _, text := range d.Texts {
		lines = append(lines, text.Text)
	}
	return strings.Join(lines, "\n")
}
