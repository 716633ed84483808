package transcript

import (
	"strings"
	"testing"
)

func TestFormatMS(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00.000"},
		{1234, "00:00:01.234"},
		{61000, "00:01:01.000"},
		{3661005, "01:01:01.005"},
		{NoTime, "--:--:--.---"},
	}
	for _, tc := range cases {
		if got := FormatMS(tc.ms); got != tc.want {
			t.Errorf("FormatMS(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestItemStringWithTimingAndSpeaker(t *testing.T) {
	item := Item{Text: "hello there", StartMS: 1000, EndMS: 2500, Speaker: "A"}
	got := item.String()
	want := "[time: 00:00:01.000-00:00:02.500] [speaker:A] hello there"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestItemStringWithoutTiming(t *testing.T) {
	item := NewItem("plain text")
	if got := item.String(); got != "plain text" {
		t.Fatalf("String() = %q, want %q", got, "plain text")
	}
}

func TestItemStringPartialTimingOmitsTag(t *testing.T) {
	item := Item{Text: "partial", StartMS: 1000, EndMS: NoTime}
	if got := item.String(); got != "partial" {
		t.Fatalf("String() = %q, want bare text", got)
	}
}

func TestItemStringKeyframe(t *testing.T) {
	item := Item{
		Text:    KeyframePrefix + "frame=1;time=2.000s\na red door\n" + KeyframeSuffix,
		StartMS: 2000,
		EndMS:   2001,
	}
	got := item.String()
	if !strings.HasPrefix(got, KeyframePrefix+" [time: 00:00:02.000-00:00:02.001] frame=1;time=2.000s") {
		t.Fatalf("unexpected keyframe header: %q", got)
	}
	if !strings.Contains(got, "\na red door\n") {
		t.Fatalf("keyframe body lost: %q", got)
	}
	if !strings.HasSuffix(got, KeyframeSuffix) {
		t.Fatalf("keyframe suffix lost: %q", got)
	}
}

func TestSortByStart(t *testing.T) {
	items := []Item{
		{Text: "b", StartMS: 2000, EndMS: 3000},
		{Text: "untimed", StartMS: NoTime, EndMS: NoTime},
		{Text: "a", StartMS: 1000, EndMS: 2000},
		{Text: "also-a", StartMS: 1000, EndMS: 1500},
	}
	SortByStart(items)
	order := []string{"untimed", "a", "also-a", "b"}
	for i, want := range order {
		if items[i].Text != want {
			t.Fatalf("position %d: got %q, want %q", i, items[i].Text, want)
		}
	}
}
