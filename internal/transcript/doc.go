// Package transcript defines the conversation model shared by ASR providers,
// the vision fallback, and the document builder.
//
// Items carry millisecond timestamps, optional speaker labels, and word-level
// timing. Rendering matches the downstream document conventions: a
// [time: HH:MM:SS.mmm-HH:MM:SS.mmm] tag when both endpoints are known, a
// [speaker:NAME] tag when a speaker is attached, and keyframe descriptions
// wrapped in [[KEYFRAME_START]] / [[KEYFRAME_END]] markers.
package transcript
