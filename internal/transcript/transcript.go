package transcript

import (
	"fmt"
	"sort"
	"strings"
)

// NoTime marks an absent timestamp. Providers that cannot supply timing use
// this instead of zero so 0ms remains a valid start.
const NoTime int64 = -1

// Markers wrapping keyframe description items.
const (
	KeyframePrefix = "[[KEYFRAME_START]]"
	KeyframeSuffix = "[[KEYFRAME_END]]"
)

// Word is a single recognized word with millisecond timing.
type Word struct {
	Text    string
	StartMS int64
	EndMS   int64
}

// Item is one transcribed segment of the conversation.
type Item struct {
	Text      string
	StartMS   int64
	EndMS     int64
	SpeakerID string
	Speaker   string
	Words     []Word
}

// NewItem returns an item without timing information.
func NewItem(text string) Item {
	return Item{Text: text, StartMS: NoTime, EndMS: NoTime}
}

// HasTiming reports whether both endpoints are known.
func (i Item) HasTiming() bool {
	return i.StartMS >= 0 && i.EndMS >= 0
}

// String renders the item the way the document builder expects.
func (i Item) String() string {
	var timeTag string
	if i.HasTiming() {
		timeTag = fmt.Sprintf("[time: %s-%s]", FormatMS(i.StartMS), FormatMS(i.EndMS))
	}

	if strings.HasPrefix(i.Text, KeyframePrefix) {
		return renderKeyframe(i.Text, timeTag)
	}

	chunks := make([]string, 0, 3)
	if timeTag != "" {
		chunks = append(chunks, timeTag)
	}
	if i.Speaker != "" {
		chunks = append(chunks, "[speaker:"+i.Speaker+"]")
	}
	chunks = append(chunks, i.Text)
	return strings.Join(chunks, " ")
}

// renderKeyframe rebuilds the marker header with the time tag inserted after
// the prefix, leaving the description body untouched.
func renderKeyframe(text, timeTag string) string {
	header, rest, hasBody := strings.Cut(text, "\n")
	headerBody := strings.TrimLeft(strings.TrimPrefix(header, KeyframePrefix), " \t")

	parts := []string{KeyframePrefix}
	if timeTag != "" {
		parts = append(parts, timeTag)
	}
	if headerBody != "" {
		parts = append(parts, headerBody)
	}
	rebuilt := strings.Join(parts, " ")
	if hasBody {
		rebuilt += "\n" + rest
	}
	return rebuilt
}

// FormatMS formats a millisecond offset as HH:MM:SS.mmm. Negative values
// (absent timestamps) render as the placeholder --:--:--.---.
func FormatMS(ms int64) string {
	if ms < 0 {
		return "--:--:--.---"
	}
	seconds, millis := ms/1000, ms%1000
	minutes, seconds := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// SortByStart orders items by start time, keeping the relative order of items
// that share a start and placing untimed items first.
func SortByStart(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].StartMS < items[b].StartMS
	})
}
