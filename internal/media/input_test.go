package media

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := FromPath(path)
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if !src.IsPath() {
		t.Fatal("expected path source")
	}
	if src.Filename != "talk.mp3" {
		t.Fatalf("filename = %q", src.Filename)
	}
}

func TestFromPathMissing(t *testing.T) {
	if _, err := FromPath(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromBytesValidation(t *testing.T) {
	if _, err := FromBytes(nil, "a.wav"); err == nil {
		t.Fatal("expected error for empty buffer")
	}
	if _, err := FromBytes([]byte("x"), ""); err == nil {
		t.Fatal("expected error for missing filename")
	}
	src, err := FromBytes([]byte("x"), "a.wav")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if src.IsPath() {
		t.Fatal("byte source reported as path")
	}
}

func TestVideoDetection(t *testing.T) {
	cases := map[string]bool{
		"clip.mp4":  true,
		"clip.MKV":  true,
		"clip.webm": true,
		"talk.wav":  false,
		"talk.mp3":  false,
		"noext":     false,
	}
	for name, want := range cases {
		src := Source{Filename: name}
		if got := src.IsVideo(); got != want {
			t.Errorf("IsVideo(%q) = %v, want %v", name, got, want)
		}
	}
	if (Source{Filename: "clip.mp4"}).Mimetype() != "video/mp4" {
		t.Fatal("video mimetype mismatch")
	}
	if (Source{Filename: "talk.mp3"}).Mimetype() != "audio/wav" {
		t.Fatal("audio mimetype mismatch")
	}
}

func TestBinaryHash(t *testing.T) {
	data := []byte("some media bytes")
	want := sha256.Sum256(data)

	src, err := FromBytes(data, "a.wav")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got := src.BinaryHash(); got != hex.EncodeToString(want[:]) {
		t.Fatalf("byte hash = %q", got)
	}

	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fileSrc, err := FromPath(path)
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if got := fileSrc.BinaryHash(); got != hex.EncodeToString(want[:]) {
		t.Fatalf("file hash = %q", got)
	}
}

func TestBinaryHashFallsBackToFilename(t *testing.T) {
	src := Source{Path: filepath.Join(t.TempDir(), "gone.wav"), Filename: "gone.wav"}
	want := sha256.Sum256([]byte("gone.wav"))
	if got := src.BinaryHash(); got != hex.EncodeToString(want[:]) {
		t.Fatalf("fallback hash = %q", got)
	}
}

func TestMaterialize(t *testing.T) {
	dir := t.TempDir()

	fileSrc := Source{Path: "/some/file.mp4", Filename: "file.mp4"}
	path, cleanup, err := fileSrc.Materialize(dir)
	if err != nil {
		t.Fatalf("Materialize path source: %v", err)
	}
	cleanup()
	if path != "/some/file.mp4" {
		t.Fatalf("path source rewrote path: %q", path)
	}

	byteSrc, err := FromBytes([]byte("payload"), "clip.mp4")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	spooled, cleanup, err := byteSrc.Materialize(dir)
	if err != nil {
		t.Fatalf("Materialize byte source: %v", err)
	}
	if !strings.HasSuffix(spooled, ".mp4") {
		t.Fatalf("spooled file lost extension: %q", spooled)
	}
	if data, err := os.ReadFile(spooled); err != nil || string(data) != "payload" {
		t.Fatalf("spooled contents: %q err=%v", data, err)
	}
	cleanup()
	if _, err := os.Stat(spooled); !os.IsNotExist(err) {
		t.Fatal("cleanup did not remove spooled file")
	}
}
