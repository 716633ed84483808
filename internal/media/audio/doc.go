// Package audio extracts and normalizes audio tracks with ffmpeg.
//
// Output is always mono 16 kHz signed 16-bit PCM WAV, the format the ASR
// providers expect. Inputs without an audio stream surface ErrNoAudioStream
// so callers can skip the speech-to-text stage instead of failing.
package audio
