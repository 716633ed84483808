// Package asr defines the speech-to-text provider contract.
//
// Implementations live in subpackages (dashscope, openaiasr) and translate
// vendor payloads into the shared transcript model. The pipeline only depends
// on the Provider interface so vendors stay swappable.
package asr
