package dashscope

import (
	"encoding/json"
	"fmt"
	"strings"

	"scribe/internal/transcript"
)

// rawWord tolerates the word-timing field spellings DashScope emits.
type rawWord struct {
	Text      string   `json:"text"`
	Word      string   `json:"word"`
	Start     *float64 `json:"start"`
	StartTime *float64 `json:"start_time"`
	BeginTime *float64 `json:"begin_time"`
	End       *float64 `json:"end"`
	EndTime   *float64 `json:"end_time"`
}

// rawSegment tolerates the segment field spellings DashScope emits.
type rawSegment struct {
	Text         string          `json:"text"`
	Sentence     string          `json:"sentence"`
	Start        *float64        `json:"start"`
	BeginTime    *float64        `json:"begin_time"`
	End          *float64        `json:"end"`
	EndTime      *float64        `json:"end_time"`
	SpeakerID    json.RawMessage `json:"speaker_id"`
	Speaker      json.RawMessage `json:"speaker"`
	SpeakerLabel string          `json:"speaker_label"`
	Words        []rawWord       `json:"words"`
}

// segmentPayload is the shape of a transcript body: either segments or
// sentences at the top level.
type segmentPayload struct {
	Segments    []rawSegment    `json:"segments"`
	Sentences   []rawSegment    `json:"sentences"`
	Transcripts []rawTranscript `json:"transcripts"`
}

// rawTranscript is the per-channel wrapper in downloaded transcription files.
type rawTranscript struct {
	Speaker      json.RawMessage `json:"speaker"`
	SpeakerID    json.RawMessage `json:"speaker_id"`
	SpeakerLabel string          `json:"speaker_label"`
	Sentences    []rawSegment    `json:"sentences"`
}

// parseTranscriptPayload converts a transcript JSON document into items,
// handling both the flat segments/sentences shape and the nested transcripts
// shape.
func parseTranscriptPayload(data []byte) ([]transcript.Item, error) {
	var payload segmentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode transcript payload: %w", err)
	}
	if len(payload.Transcripts) > 0 {
		return itemsFromTranscripts(payload.Transcripts), nil
	}
	return itemsFromSegments(pickSegments(payload)), nil
}

func pickSegments(payload segmentPayload) []rawSegment {
	if len(payload.Segments) > 0 {
		return payload.Segments
	}
	return payload.Sentences
}

func itemsFromTranscripts(transcripts []rawTranscript) []transcript.Item {
	var items []transcript.Item
	for _, tr := range transcripts {
		for _, sentence := range tr.Sentences {
			if sentence.SpeakerID == nil {
				sentence.SpeakerID = tr.SpeakerID
			}
			if sentence.Speaker == nil {
				sentence.Speaker = tr.Speaker
			}
			if sentence.SpeakerLabel == "" {
				sentence.SpeakerLabel = tr.SpeakerLabel
			}
			items = append(items, itemFromSegment(sentence))
		}
	}
	return items
}

func itemsFromSegments(segments []rawSegment) []transcript.Item {
	items := make([]transcript.Item, 0, len(segments))
	for _, segment := range segments {
		items = append(items, itemFromSegment(segment))
	}
	return items
}

func itemFromSegment(segment rawSegment) transcript.Item {
	words := make([]transcript.Word, 0, len(segment.Words))
	for _, word := range segment.Words {
		words = append(words, transcript.Word{
			Text:    firstNonEmpty(word.Text, word.Word),
			StartMS: msOrNoTime(word.Start, word.StartTime, word.BeginTime),
			EndMS:   msOrNoTime(word.End, word.EndTime),
		})
	}
	if len(words) == 0 {
		words = nil
	}
	return transcript.Item{
		Text:      strings.TrimSpace(firstNonEmpty(segment.Text, segment.Sentence)),
		StartMS:   msOrNoTime(segment.Start, segment.BeginTime),
		EndMS:     msOrNoTime(segment.End, segment.EndTime),
		SpeakerID: rawToString(segment.SpeakerID, segment.Speaker),
		Speaker:   segment.SpeakerLabel,
		Words:     words,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// msOrNoTime picks the first present millisecond value.
func msOrNoTime(values ...*float64) int64 {
	for _, value := range values {
		if value != nil {
			return int64(*value)
		}
	}
	return transcript.NoTime
}

// rawToString renders the first present speaker field, which the service
// encodes as either a JSON number or a string.
func rawToString(values ...json.RawMessage) string {
	for _, value := range values {
		if len(value) == 0 || string(value) == "null" {
			continue
		}
		var asString string
		if err := json.Unmarshal(value, &asString); err == nil {
			return asString
		}
		var asNumber json.Number
		if err := json.Unmarshal(value, &asNumber); err == nil {
			return asNumber.String()
		}
	}
	return ""
}
