// Package logging builds the slog loggers used across scribe.
//
// Two formats are supported: a human-oriented console format
// ("TIMESTAMP LEVEL component: message key=value ...") and line-delimited
// JSON with ts/level/msg keys. Pipeline steps attach a "component" attribute
// which the console handler hoists into the message prefix.
package logging
