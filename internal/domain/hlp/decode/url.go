package decode

import (
	"net/url"
	"strconv"
)

func init() {
	register("url", DecoderFunc(decodeURL))
}

// decodeURL parses the captured token into original, scheme, username,
// password, domain, port, path, query, fragment. A token with no scheme
// is rejected outright (this resolves the "url_wrong_format" ambiguity
// noted in the source tests: a schemeless token never yields a partial
// field map).
func decodeURL(input string, cursor int, _ []string, stop string) (*ParseResult, int, bool) {
	rest := input[cursor:]
	n := consumeToken(rest, stop)
	if n == 0 {
		return nil, cursor, false
	}
	token := rest[:n]

	u, err := url.Parse(token)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, cursor, false
	}

	r := NewParseResult()
	r.Set("original", String(token))
	r.Set("scheme", String(u.Scheme))
	if u.User != nil {
		if user := u.User.Username(); user != "" {
			r.Set("username", String(user))
		}
		if pw, ok := u.User.Password(); ok {
			r.Set("password", String(pw))
		}
	}
	if host := u.Hostname(); host != "" {
		r.Set("domain", String(host))
	}
	if portStr := u.Port(); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			r.Set("port", Int(int64(p)))
		}
	}
	if u.Path != "" {
		r.Set("path", String(u.Path))
	}
	if u.RawQuery != "" {
		r.Set("query", String(u.RawQuery))
	}
	if u.Fragment != "" {
		r.Set("fragment", String(u.Fragment))
	}
	return r, cursor + n, true
}
