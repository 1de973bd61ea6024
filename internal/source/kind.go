package source

import (
	"path"
	"strings"
)

// Kind classifies a file target by its inferred content type.
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindArchive Kind = "archive"
	KindOther   Kind = "other"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".jpe": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true, ".webp": true, ".heic": true,
	".heif": true, ".svg": true, ".ico": true, ".jfif": true, ".avif": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true,
	".wmv": true, ".flv": true, ".mpeg": true, ".mpg": true, ".m4v": true,
	".3gp": true, ".ogv": true, ".ts": true, ".vob": true,
}

var archiveExts = map[string]bool{
	".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true, ".bz2": true,
}

var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".aac": true, ".flac": true, ".ogg": true,
	".wma": true, ".m4a": true, ".opus": true, ".aiff": true, ".mid": true,
	".midi": true,
}

// KindOf infers the content kind from a filename's extension.
func KindOf(name string) Kind {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	case audioExts[ext]:
		return KindAudio
	case archiveExts[ext]:
		return KindArchive
	default:
		return KindOther
	}
}
