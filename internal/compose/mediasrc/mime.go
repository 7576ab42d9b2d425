// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mediasrc

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ManuGH/wabridge/internal/session/ports"
)

// OfficeDocumentMIME is sent when a file has to go out as a plain document.
const OfficeDocumentMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// extensions is deliberately independent of the host's mime.types so the
// classification is identical on every machine.
var extensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".heic": "image/heic",

	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".3gp":  "video/3gpp",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",

	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".amr":  "audio/amr",
	".flac": "audio/flac",

	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": OfficeDocumentMIME,
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".zip":  "application/zip",
	".rar":  "application/vnd.rar",
	".7z":   "application/x-7z-compressed",
	".apk":  "application/vnd.android.package-archive",
	".vcf":  "text/vcard",
}

// MIMEByExtension looks up the media type for name's extension.
func MIMEByExtension(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", false
	}
	mt, ok := extensions[ext]
	return mt, ok
}

// Sniff detects the media type from content. Unknown content yields
// application/octet-stream.
func Sniff(data []byte) string {
	return normalizeMIME(mimetype.Detect(data).String())
}

// KindFor maps a media type to the coarse kind it is sent as.
func KindFor(mimeType string) ports.MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ports.MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		return ports.MediaVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return ports.MediaAudio
	default:
		return ports.MediaDocument
	}
}

// ExtensionFor returns a conventional extension for a media type, used to
// name documents that arrived without a file name.
func ExtensionFor(mimeType string) string {
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	best := ""
	for ext, mt := range extensions {
		if mt == mimeType && (best == "" || ext < best) {
			best = ext
		}
	}
	return best
}
