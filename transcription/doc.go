// Package transcription defines the speech-to-text provider interface and
// the result types shared by its backends.
//
// # Backends
//
//   - transcription/whisper: whisper.cpp CLI, resampling through ffmpeg
//   - transcription/sidecar: whisper-compatible HTTP server
//
// Both backends leave the same sibling artifacts next to the input file
// (see ArtifactPaths), so delivery and cleanup do not depend on which one ran.
package transcription
