package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/document"
	"scribe/internal/pipeline"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/testsupport"
	"scribe/internal/transcript"
)

type fakeTranscriber struct {
	err   error
	calls []string
}

func (f *fakeTranscriber) TranscribePath(ctx context.Context, path string) (*pipeline.Result, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return nil, f.err
	}
	items := []transcript.Item{{Text: "hello", StartMS: 0, EndMS: 900}}
	return &pipeline.Result{
		Document: document.Build(filepath.Base(path), "video/mp4", "hash", items, ""),
		Items:    items,
	}, nil
}

func TestRunDrainsQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, name := range []string{"a.mp4", "b.mp4"} {
		testsupport.MustAdd(t, store, filepath.Join("/media", name))
	}

	transcriber := &fakeTranscriber{}
	runner, err := New(cfg, store, transcriber, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stats, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Processed != 2 || stats.Completed != 2 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(transcriber.calls) != 2 {
		t.Fatalf("calls = %v", transcriber.calls)
	}

	items, err := store.List(ctx, queue.StatusCompleted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("completed = %d", len(items))
	}
	for _, item := range items {
		if item.OutputPath == "" {
			t.Fatalf("item %d has no output path", item.ID)
		}
		if _, err := os.Stat(item.OutputPath); err != nil {
			t.Fatalf("output missing: %v", err)
		}
	}
}

func TestRunRecordsFailureStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustAdd(t, store, "/media/missing.mp4")

	failure := services.Wrap(services.ErrValidation, "validate", "input", "file missing", nil)
	runner, err := New(cfg, store, &fakeTranscriber{err: failure}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stats, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	items, err := store.List(ctx, queue.StatusReview)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || !strings.Contains(items[0].ErrorMessage, "file missing") {
		t.Fatalf("review items = %+v", items)
	}
}

func TestRunResetsInterruptedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stuck := testsupport.MustAdd(t, store, "/media/stuck.mp4")
	stuck.Status = queue.StatusTranscribing
	if err := store.Update(ctx, stuck); err != nil {
		t.Fatalf("Update: %v", err)
	}

	runner, err := New(cfg, store, &fakeTranscriber{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stats, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Processed != 1 || stats.Completed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestTranscribingHookAdvancesStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.MustAdd(t, store, "/media/talk.mp4")
	item.Status = queue.StatusExtracting
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	hook := TranscribingHook(store, nil)
	jobCtx := services.WithJobID(ctx, item.ID)

	// Only the transcribe stage moves the item.
	hook(jobCtx, "extract")
	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusExtracting {
		t.Fatalf("status = %q after extract stage", got.Status)
	}

	hook(jobCtx, "transcribe")
	got, err = store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusTranscribing {
		t.Fatalf("status = %q, want transcribing", got.Status)
	}

	// A context without a job ID is a no-op.
	hook(ctx, "transcribe")
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first, err := New(cfg, store, &fakeTranscriber{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ok, err := first.lock.TryLock(); err != nil || !ok {
		t.Fatalf("prime lock: %v %v", ok, err)
	}
	defer func() { _ = first.lock.Unlock() }()

	second, err := New(cfg, store, &fakeTranscriber{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := second.Run(context.Background()); err != ErrAlreadyRunning {
		t.Fatalf("err = %v, want ErrAlreadyRunning", err)
	}
}

func TestWriteOutputsProducesJSONAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	items := []transcript.Item{{Text: "hi", StartMS: 0, EndMS: 100}}
	result := &pipeline.Result{Document: document.Build("clip.mp4", "video/mp4", "h", items, "")}

	jsonPath, err := WriteOutputs(dir, "/media/clip.mp4", result)
	if err != nil {
		t.Fatalf("WriteOutputs: %v", err)
	}
	if filepath.Base(jsonPath) != "clip.transcript.json" {
		t.Fatalf("jsonPath = %q", jsonPath)
	}
	markdown, err := os.ReadFile(filepath.Join(dir, "clip.transcript.md"))
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if !strings.Contains(string(markdown), "# clip") {
		t.Fatalf("markdown = %q", markdown)
	}
}

func TestWriteOutputsRejectsNilDocument(t *testing.T) {
	if _, err := WriteOutputs(t.TempDir(), "/media/x.mp4", &pipeline.Result{}); err == nil {
		t.Fatal("expected error for nil document")
	}
}
