package parser

import (
	"strings"

	"github.com/rayen-mansouri/packet-analyzer/pkg/packet"
)

var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS", "PATCH", "CONNECT", "TRACE"}

// parseHTTP extracts the request line and the Host and Authorization
// headers from the start of an HTTP/1.x message. Responses are recognised
// but carry no request metadata.
func parseHTTP(payload []byte) (*packet.AppMeta, bool) {
	text := string(payload)
	lines := strings.Split(text, "\n")
	first := strings.TrimRight(lines[0], "\r")

	if strings.HasPrefix(first, "HTTP/1.") {
		return &packet.AppMeta{}, true
	}

	parts := strings.Fields(first)
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "HTTP/") || !isHTTPMethod(parts[0]) {
		return nil, false
	}

	app := &packet.AppMeta{HTTPMethod: parts[0], HTTPURI: parts[1]}
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name, value := line[:colon], strings.TrimSpace(line[colon+1:])
		switch {
		case strings.EqualFold(name, "Host"):
			app.HTTPHost = value
		case strings.EqualFold(name, "Authorization"):
			app.HTTPAuthorization = value
		}
	}
	return app, true
}

func isHTTPMethod(method string) bool {
	for _, m := range httpMethods {
		if method == m {
			return true
		}
	}
	return false
}

