package dashscope

import (
	"testing"

	"scribe/internal/transcript"
)

func TestParseTranscriptPayloadNestedTranscripts(t *testing.T) {
	payload := []byte(`{
		"transcripts": [
			{
				"speaker_id": 1,
				"sentences": [
					{"text": "hello there", "begin_time": 120, "end_time": 980,
					 "words": [
						{"word": "hello", "begin_time": 120, "end_time": 500},
						{"word": "there", "begin_time": 500, "end_time": 980}
					 ]},
					{"text": "second line", "begin_time": 1000, "end_time": 2000}
				]
			}
		]
	}`)

	items, err := parseTranscriptPayload(payload)
	if err != nil {
		t.Fatalf("parseTranscriptPayload: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	first := items[0]
	if first.Text != "hello there" || first.StartMS != 120 || first.EndMS != 980 {
		t.Fatalf("first item = %+v", first)
	}
	if first.SpeakerID != "1" {
		t.Fatalf("speaker id = %q, want inherited %q", first.SpeakerID, "1")
	}
	if len(first.Words) != 2 || first.Words[1].Text != "there" || first.Words[1].StartMS != 500 {
		t.Fatalf("words = %+v", first.Words)
	}
	if items[1].Words != nil {
		t.Fatalf("second item should carry no words: %+v", items[1].Words)
	}
}

func TestParseTranscriptPayloadFlatSegments(t *testing.T) {
	payload := []byte(`{
		"segments": [
			{"sentence": "alt text field", "start": 0, "end": 1500, "speaker": "A"},
			{"text": "untimed"}
		]
	}`)

	items, err := parseTranscriptPayload(payload)
	if err != nil {
		t.Fatalf("parseTranscriptPayload: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Text != "alt text field" || items[0].SpeakerID != "A" {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[1].StartMS != transcript.NoTime || items[1].EndMS != transcript.NoTime {
		t.Fatalf("untimed segment should use NoTime: %+v", items[1])
	}
	if items[1].HasTiming() {
		t.Fatal("untimed segment reports timing")
	}
}

func TestParseTranscriptPayloadSentencesKey(t *testing.T) {
	payload := []byte(`{"sentences": [{"text": "  padded  ", "begin_time": 5, "end_time": 9}]}`)
	items, err := parseTranscriptPayload(payload)
	if err != nil {
		t.Fatalf("parseTranscriptPayload: %v", err)
	}
	if len(items) != 1 || items[0].Text != "padded" {
		t.Fatalf("items = %+v", items)
	}
}

func TestParseTranscriptPayloadRejectsGarbage(t *testing.T) {
	if _, err := parseTranscriptPayload([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFlexStrings(t *testing.T) {
	var single flexStrings
	if err := single.UnmarshalJSON([]byte(`"one"`)); err != nil {
		t.Fatalf("single: %v", err)
	}
	if len(single) != 1 || single[0] != "one" {
		t.Fatalf("single = %v", single)
	}
	var many flexStrings
	if err := many.UnmarshalJSON([]byte(`["a","b"]`)); err != nil {
		t.Fatalf("many: %v", err)
	}
	if len(many) != 2 || many[1] != "b" {
		t.Fatalf("many = %v", many)
	}
}
