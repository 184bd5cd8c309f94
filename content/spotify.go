package content

import (
	"net/url"
	"strings"
)

const spotifyEmbedBase = "https://open.spotify.com/embed/track/"

// SpotifyEmbedURL converts a Spotify track link into its embeddable player
// URL. Only absolute URLs whose path starts with /track/<id> qualify.
func SpotifyEmbedURL(trackURL string) (string, bool) {
	if trackURL == "" {
		return "", false
	}
	u, err := url.Parse(trackURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 || parts[0] != "track" {
		return "", false
	}
	return spotifyEmbedBase + parts[1], true
}
