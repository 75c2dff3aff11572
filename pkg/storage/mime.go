package storage

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

// binaryType is the fallback content type when sniffing finds nothing.
const binaryType = "application/octet-stream"

// sniffLen is the number of bytes http.DetectContentType inspects.
const sniffLen = 512

// extensions maps content types to the extension used for generated keys.
var extensions = map[string]string{
	"image/jpeg":               ".jpg",
	"image/png":                ".png",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/svg+xml":            ".svg",
	"image/bmp":                ".bmp",
	"image/x-icon":             ".ico",
	"image/avif":               ".avif",
	"application/pdf":          ".pdf",
	"text/plain":               ".txt",
	"text/csv":                 ".csv",
	"text/html":                ".html",
	"application/json":         ".json",
	"application/xml":          ".xml",
	"text/xml":                 ".xml",
	"application/zip":          ".zip",
	"application/x-gzip":       ".gz",
	"application/gzip":         ".gz",
	"video/mp4":                ".mp4",
	"video/webm":               ".webm",
	"audio/mpeg":               ".mp3",
	"audio/wave":               ".wav",
	"audio/ogg":                ".ogg",
	"application/octet-stream": ".bin",
}

// sniff detects the content type from the first bytes of r and hands
// back a seekable reader positioned at the start. The S3 SDK needs a
// ReadSeeker to compute the payload hash, so non-seekable input is
// buffered in full.
func sniff(r io.Reader) (string, io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		buf := make([]byte, sniffLen)
		n, err := rs.Read(buf)
		if err != nil && err != io.EOF {
			return "", nil, err
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return "", nil, err
		}
		if n == 0 {
			return binaryType, rs, nil
		}
		return http.DetectContentType(buf[:n]), rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return binaryType, bytes.NewReader(nil), nil
	}
	return http.DetectContentType(data), bytes.NewReader(data), nil
}

// seekable returns r unchanged when it can seek, buffering it otherwise.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// baseType strips parameters such as charset and lowercases the result.
func baseType(contentType string) string {
	contentType, _, _ = strings.Cut(contentType, ";")
	return strings.TrimSpace(strings.ToLower(contentType))
}

// extensionFor picks a filename extension for generated object keys.
func extensionFor(contentType string) string {
	if ext, ok := extensions[baseType(contentType)]; ok {
		return ext
	}
	return ".bin"
}

// matchType reports whether contentType matches any pattern. A pattern
// ending in "/*" matches every subtype of its primary type.
func matchType(contentType string, patterns []string) bool {
	ct := baseType(contentType)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(strings.ToLower(pattern))
		if ct == pattern {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if strings.HasPrefix(ct, prefix+"/") {
				return true
			}
		}
	}
	return false
}
