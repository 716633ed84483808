// Package keyframes samples representative video frames with ffmpeg.
//
// Scene-change detection drives the primary pass; a uniform one-frame-per-
// second pass is the fallback when scene detection fails or produces nothing.
// Frame timestamps come from parsing pts_time values in the showinfo filter
// output.
package keyframes
