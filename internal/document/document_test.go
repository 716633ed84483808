package document

import (
	"encoding/json"
	"strings"
	"testing"

	"scribe/internal/transcript"
)

func sampleItems() []transcript.Item {
	return []transcript.Item{
		{Text: "hello there", StartMS: 0, EndMS: 1500, Speaker: "1"},
		transcript.NewItem("untimed remark"),
		{Text: "   "},
	}
}

func TestBuildRendersItemsInOrder(t *testing.T) {
	doc := Build("meeting.mp4", "video/mp4", "abc123", sampleItems(), "")
	if doc.Name != "meeting" {
		t.Fatalf("name = %q", doc.Name)
	}
	if doc.Origin.BinaryHash != "abc123" || doc.Origin.Mimetype != "video/mp4" {
		t.Fatalf("origin = %+v", doc.Origin)
	}
	if len(doc.Texts) != 2 {
		t.Fatalf("texts = %d, want blank item dropped", len(doc.Texts))
	}
	if doc.Texts[0].Text != "[time: 00:00:00.000-00:00:01.500] [speaker:1] hello there" {
		t.Fatalf("first text = %q", doc.Texts[0].Text)
	}
	if doc.Texts[1].Text != "untimed remark" {
		t.Fatalf("second text = %q", doc.Texts[1].Text)
	}
}

func TestBuildSummaryLeads(t *testing.T) {
	doc := Build("a.wav", "audio/wav", "h", nil, "  two people argue about budgets  ")
	if len(doc.Texts) != 1 {
		t.Fatalf("texts = %d", len(doc.Texts))
	}
	if doc.Texts[0].Text != "[summary] two people argue about budgets" {
		t.Fatalf("summary text = %q", doc.Texts[0].Text)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	doc := Build("talk.mp4", "video/mp4", "deadbeef", sampleItems(), "recap")
	data, err := doc.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SchemaName != SchemaName || decoded.Version != SchemaVersion {
		t.Fatalf("schema fields = %q %q", decoded.SchemaName, decoded.Version)
	}
	if len(decoded.Texts) != len(doc.Texts) {
		t.Fatalf("texts = %d, want %d", len(decoded.Texts), len(doc.Texts))
	}
}

func TestMarkdownIncludesProvenance(t *testing.T) {
	doc := Build("talk.mp4", "video/mp4", "deadbeef", sampleItems(), "")
	md := doc.Markdown()
	for _, want := range []string{"# talk", "- Source: talk.mp4", "- Hash: deadbeef", "hello there"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestStemEdgeCases(t *testing.T) {
	if got := stem("archive/recording.v2.mp4"); got != "recording.v2" {
		t.Fatalf("stem = %q", got)
	}
	if got := stem(""); got != "transcript" {
		t.Fatalf("empty stem = %q", got)
	}
}
