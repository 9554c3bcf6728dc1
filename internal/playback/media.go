package playback

import (
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// videoPattern matches media paths the player treats as video.
const videoPattern = "**/*.{mp4,mov,m4v,webm,mkv,m3u8,avi}"

const cdnUploadSegment = "/upload/"

// DeliveryURL maps a stored media URL to its delivery URL: the scheme is
// upgraded to https and an adaptive format and quality hint is added. CDN
// upload paths take the hint as a transformation segment, anything else as
// query parameters. Unparsable input is returned unchanged.
func DeliveryURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.Scheme == "http" || u.Scheme == "" {
		u.Scheme = "https"
	}

	if i := strings.Index(u.Path, cdnUploadSegment); i >= 0 {
		rest := u.Path[i+len(cdnUploadSegment):]
		if !strings.HasPrefix(rest, "f_auto") {
			u.Path = u.Path[:i+len(cdnUploadSegment)] + "f_auto,q_auto/" + rest
			u.RawPath = ""
		}
		return u.String()
	}

	q := u.Query()
	if q.Get("format") == "" {
		q.Set("format", "auto")
	}
	if q.Get("quality") == "" {
		q.Set("quality", "auto")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// IsVideo reports whether raw points at a video by its path suffix.
func IsVideo(raw string) bool {
	p := raw
	if u, err := url.Parse(strings.TrimSpace(raw)); err == nil {
		p = u.Path
	}
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return false
	}
	ok, err := doublestar.Match(videoPattern, strings.ToLower(p))
	return err == nil && ok
}
