// Command scribe transcribes audio and video files into structured
// documents. It extracts normalized audio with ffmpeg, sends it to a cloud
// speech service, and falls back to keyframe captioning for silent videos.
package main
