package media

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Extensions treated as video containers.
var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".mkv":  {},
	".webm": {},
}

// Source is a validated transcription input.
type Source struct {
	Path     string
	Data     []byte
	Filename string
}

// FromPath validates a filesystem input.
func FromPath(path string) (Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Source{}, errors.New("input path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("input %q is a directory", path)
	}
	return Source{Path: path, Filename: filepath.Base(path)}, nil
}

// FromBytes validates an in-memory input. A filename is required so the
// pipeline can classify the media and name the document origin.
func FromBytes(data []byte, filename string) (Source, error) {
	if len(data) == 0 {
		return Source{}, errors.New("empty input buffer")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return Source{}, errors.New("filename is required for byte input")
	}
	return Source{Data: data, Filename: filename}, nil
}

// IsPath reports whether the source is backed by a file on disk.
func (s Source) IsPath() bool {
	return s.Path != ""
}

// IsVideo reports whether the filename carries a video container extension.
func (s Source) IsVideo() bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(s.Filename))]
	return ok
}

// Mimetype returns the origin mimetype recorded in the built document.
func (s Source) Mimetype() string {
	if s.IsVideo() {
		return "video/mp4"
	}
	return "audio/wav"
}

// BinaryHash computes the hex sha256 of the source bytes. When the file
// cannot be read the filename is hashed instead so the document origin stays
// populated.
func (s Source) BinaryHash() string {
	hasher := sha256.New()
	if s.IsPath() {
		file, err := os.Open(s.Path)
		if err == nil {
			defer file.Close()
			if _, err := io.Copy(hasher, file); err == nil {
				return hex.EncodeToString(hasher.Sum(nil))
			}
		}
		fallback := sha256.Sum256([]byte(s.Filename))
		return hex.EncodeToString(fallback[:])
	}
	hasher.Write(s.Data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// Materialize returns a path to the source contents, spooling byte inputs
// into dir. The cleanup func removes any temp file that was created.
func (s Source) Materialize(dir string) (string, func(), error) {
	if s.IsPath() {
		return s.Path, func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("ensure work dir: %w", err)
	}
	ext := filepath.Ext(s.Filename)
	if ext == "" {
		ext = ".bin"
	}
	path := filepath.Join(dir, "input-"+uuid.NewString()+ext)
	if err := os.WriteFile(path, s.Data, 0o644); err != nil {
		return "", nil, fmt.Errorf("spool input: %w", err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}
