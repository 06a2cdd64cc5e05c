package media

import (
	"net/url"
	"strings"
)

// Kind is the media family a URL or path points at.
type Kind string

const (
	KindUnknown Kind = ""
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
)

var (
	imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	videoExtensions = []string{".mp4", ".mkv", ".webm", ".mov", ".mpg", ".mpeg"}
	audioExtensions = []string{".mp3", ".wav", ".flac", ".mpga", ".m4a"}
)

// Extensions returns the recognised suffixes for a kind.
func Extensions(kind Kind) []string {
	switch kind {
	case KindImage:
		return append([]string(nil), imageExtensions...)
	case KindVideo:
		return append([]string(nil), videoExtensions...)
	case KindAudio:
		return append([]string(nil), audioExtensions...)
	default:
		return nil
	}
}

// KindOf classifies a URL, path or data URI by its suffix. Images win over
// video, video over audio. Matching is case-insensitive and ignores URL query
// strings and fragments.
func KindOf(value string) Kind {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return KindUnknown
	}
	if strings.HasPrefix(lower, "data:") {
		return kindFromMIME(strings.TrimPrefix(lower, "data:"))
	}
	candidates := []string{lower}
	if parsed, err := url.Parse(lower); err == nil && parsed.Path != "" && parsed.Path != lower {
		candidates = append(candidates, parsed.Path)
	}
	for _, kind := range []Kind{KindImage, KindVideo, KindAudio} {
		for _, candidate := range candidates {
			if hasAnySuffix(candidate, Extensions(kind)) {
				return kind
			}
		}
	}
	return KindUnknown
}

// Classify inspects an example value: a string, or the first element of a
// non-empty list of strings.
func Classify(value any) Kind {
	switch typed := value.(type) {
	case string:
		return KindOf(typed)
	case []any:
		if len(typed) == 0 {
			return KindUnknown
		}
		if first, ok := typed[0].(string); ok {
			return KindOf(first)
		}
	case []string:
		if len(typed) > 0 {
			return KindOf(typed[0])
		}
	}
	return KindUnknown
}

func kindFromMIME(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	default:
		return KindUnknown
	}
}

func hasAnySuffix(value string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(value, suffix) {
			return true
		}
	}
	return false
}
