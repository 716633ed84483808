// Package dashscope implements the Aliyun Bailian (DashScope) speech-to-text
// provider.
//
// The preferred flow mirrors the vendor's async workflow: upload the audio to
// the files endpoint, submit an asynchronous transcription task, poll the
// task until it settles, then download and flatten the transcript payloads.
// A direct multipart call against the synchronous ASR endpoint remains as a
// fallback when the async flow is unavailable. Transport failures and 5xx
// responses are retried with exponential backoff.
//
// The parser is deliberately tolerant: the service emits several field
// spellings for segment boundaries (start/begin_time, end/end_time), item
// text (text/sentence), and speakers, and timestamps arrive in milliseconds.
package dashscope
