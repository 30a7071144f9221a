package media

import (
	"path/filepath"
	"strings"
)

// DefaultFileName is used when a submission carries no file name.
const DefaultFileName = "audio.ogg"

// ExtensionFor maps a MIME type to the extension of the downloaded file.
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "video/mp4":
		return "mp4"
	case "audio/ogg":
		return "ogg"
	default:
		return "mp3"
	}
}

// LocalPath returns <dir>/<fileID>.<ext> for a submission.
func LocalPath(dir, fileID, mimeType string) string {
	return filepath.Join(dir, fileID+"."+ExtensionFor(mimeType))
}
