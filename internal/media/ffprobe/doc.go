// Package ffprobe wraps ffprobe JSON inspection of media containers.
//
// The pipeline uses it to locate the audio stream to extract and to detect
// inputs that carry no audio at all before ffmpeg runs.
package ffprobe
