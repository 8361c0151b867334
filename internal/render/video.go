package render

import "strings"

const youtubeEmbedBase = "https://www.youtube.com/embed/"

// YouTubeID extracts the video id from a youtube.com watch URL: the value of
// the v= parameter up to the next '&'. It reports false for any other source.
func YouTubeID(src string) (string, bool) {
	if !strings.Contains(src, "youtube.com") {
		return "", false
	}
	_, after, ok := strings.Cut(src, "v=")
	if !ok {
		return "", false
	}
	id, _, _ := strings.Cut(after, "&")
	if id == "" {
		return "", false
	}
	return id, true
}

// VideoEmbedURL returns the embeddable player URL for a YouTube source.
// Other sources are shown as plain links, so it reports false for them.
func VideoEmbedURL(src string) (string, bool) {
	id, ok := YouTubeID(src)
	if !ok {
		return "", false
	}
	return youtubeEmbedBase + id, true
}
