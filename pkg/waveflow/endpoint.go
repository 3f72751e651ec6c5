package waveflow

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the hosted WaveFlow Studio service.
const DefaultBaseURL = "http://3.92.146.100:5000"

// JoinURL combines a base address and a path suffix. Exactly one trailing
// slash is trimmed from base and the suffix always starts with "/".
func JoinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func buildURL(base, path string, query url.Values) string {
	target := JoinURL(base, path)
	if len(query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode()
}
