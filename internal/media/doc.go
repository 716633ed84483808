// Package media validates transcription inputs and prepares them for ffmpeg.
//
// A Source is either a filesystem path or an in-memory buffer with a
// filename. Byte sources are spooled to the work directory before external
// tools run and removed afterwards. The package also computes the sha256
// binary hash recorded in the document origin and classifies inputs as audio
// or video by extension.
package media
