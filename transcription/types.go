package transcription

import "strings"

// ResampledSuffix is appended to the input path for the resampled audio.
const ResampledSuffix = ".OUTPUT.wav"

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the local media file.
	AudioPath string `json:"audio_path"`
	// Model is the engine model name, e.g. "base".
	Model string `json:"model,omitempty"`
	// Language is an ISO code or "auto".
	Language string `json:"language,omitempty"`
}

// Artifact is an auxiliary output file delivered alongside the text.
type Artifact struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
}

// Result is the normalized outcome of one engine invocation.
type Result struct {
	Success   bool       `json:"success"`
	Text      string     `json:"text,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Succeeded builds a successful Result with the standard artifacts for path.
func Succeeded(path, text string) Result {
	return Result{Success: true, Text: strings.TrimSpace(text), Artifacts: Artifacts(path)}
}

// Failed builds a failed Result. An empty reason is replaced so users never
// see a bare failure notice.
func Failed(reason string) Result {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	return Result{Reason: reason}
}

// ResampledPath returns the 16 kHz mono WAV written next to path.
func ResampledPath(path string) string {
	return path + ResampledSuffix
}

// JSONPath, TextPath and CSVPath are the engine outputs for path.
func JSONPath(path string) string { return ResampledPath(path) + ".json" }

func TextPath(path string) string { return ResampledPath(path) + ".txt" }

func CSVPath(path string) string { return ResampledPath(path) + ".csv" }

// Artifacts returns the auxiliary files in delivery order.
func Artifacts(path string) []Artifact {
	return []Artifact{
		{Path: JSONPath(path), DisplayName: "text.json"},
		{Path: TextPath(path), DisplayName: "text.txt"},
		{Path: CSVPath(path), DisplayName: "text.csv"},
	}
}

// ArtifactPaths returns every local path a job can leave behind: the
// download itself, the resampled audio and the three engine outputs.
func ArtifactPaths(path string) []string {
	return []string{path, ResampledPath(path), JSONPath(path), TextPath(path), CSVPath(path)}
}
