package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
)

// MultipartBody represents a multipart/form-data request body. Pass it as
// Request.Body; the Content-Type header is set automatically.
type MultipartBody struct {
	// Fields are simple key-value form fields.
	Fields map[string]string
	// Files are file upload fields.
	Files []FileField
}

// FileField is a file part. Exactly one of Path, Data or Reader is used, in
// that order of preference.
type FileField struct {
	// FieldName is the form field name (e.g., "document", "file").
	FieldName string
	// FileName is the file name sent to the server.
	FileName string
	// ContentType is the MIME type. Empty means application/octet-stream.
	ContentType string
	// Path is a file on disk, opened each time the body is encoded.
	Path string
	// Data is in-memory file content.
	Data []byte
	// Reader is streamed once; a retried request cannot replay it.
	Reader io.Reader
}

// encode opens every Path up front, so a missing file fails before any
// bytes are sent, then streams the parts through a pipe.
func (m *MultipartBody) encode() (io.Reader, string, error) {
	sources := make([]io.Reader, len(m.Files))
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for i, f := range m.Files {
		switch {
		case f.Path != "":
			file, err := os.Open(f.Path)
			if err != nil {
				closeAll()
				return nil, "", fmt.Errorf("open %s: %w", f.Path, err)
			}
			opened = append(opened, file)
			sources[i] = file
		case f.Data != nil:
			sources[i] = bytes.NewReader(f.Data)
		case f.Reader != nil:
			sources[i] = f.Reader
		default:
			sources[i] = bytes.NewReader(nil)
		}
	}

	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	go func() {
		defer closeAll()
		pw.CloseWithError(m.write(w, sources))
	}()
	return pr, w.FormDataContentType(), nil
}

func (m *MultipartBody) write(w *multipart.Writer, sources []io.Reader) error {
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	for i, f := range m.Files {
		var part io.Writer
		var err error
		if f.ContentType != "" {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition",
				`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
			header.Set("Content-Type", f.ContentType)
			part, err = w.CreatePart(header)
		} else {
			part, err = w.CreateFormFile(f.FieldName, f.FileName)
		}
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, sources[i]); err != nil {
			return err
		}
	}
	return w.Close()
}

// escapeQuotes replaces special characters in header values.
func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}
