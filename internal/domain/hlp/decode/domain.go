package decode

import "strings"

func init() {
	register("domain", DecoderFunc(decodeDomain))
}

// twoLabelTLDs is a small built-in table of registrable two-label public
// suffixes. The original engine keeps a short table rather than a full
// public-suffix list; unrecognized two-label endings fall back to
// single-label TLD splitting instead of failing.
var twoLabelTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "gov.uk": true, "me.uk": true,
	"com.br": true, "com.au": true, "net.au": true, "org.au": true,
	"co.jp": true, "co.nz": true, "co.za": true, "co.in": true,
	"com.mx": true, "com.ar": true, "com.cn": true, "net.cn": true,
}

// decodeDomain splits a token into subdomain, registered_domain, and
// top_level_domain sub-fields. registered_domain keeps its TLD suffix
// ("www.wazuh.com" yields "wazuh.com"). A bare single-label host is
// accepted, emitting only registered_domain. `domain/FQDN` additionally
// requires a non-empty subdomain and a TLD.
func decodeDomain(input string, cursor int, args []string, stop string) (*ParseResult, int, bool) {
	rest := input[cursor:]
	n := consumeToken(rest, stop)
	if n == 0 {
		return nil, cursor, false
	}
	token := rest[:n]

	requireFQDN := len(args) > 0 && strings.EqualFold(args[0], "FQDN")

	if len(token) > 253 {
		return nil, cursor, false
	}
	for _, b := range []byte(token) {
		if !isDomainByte(b) {
			return nil, cursor, false
		}
	}

	labels := strings.Split(token, ".")
	for _, l := range labels {
		if l == "" || len(l) > 63 {
			return nil, cursor, false
		}
	}

	if len(labels) == 1 {
		// A bare host has neither subdomain nor TLD.
		if requireFQDN {
			return nil, cursor, false
		}
		r := NewParseResult()
		r.Set("registered_domain", String(token))
		return r, cursor + n, true
	}

	tldLabels := 1
	if len(labels) >= 3 {
		candidate := strings.Join(labels[len(labels)-2:], ".")
		if twoLabelTLDs[strings.ToLower(candidate)] {
			tldLabels = 2
		}
	}

	tld := strings.Join(labels[len(labels)-tldLabels:], ".")
	remaining := labels[:len(labels)-tldLabels]
	if len(remaining) == 0 {
		return nil, cursor, false
	}

	registeredDomain := remaining[len(remaining)-1] + "." + tld
	subdomain := ""
	if len(remaining) > 1 {
		subdomain = strings.Join(remaining[:len(remaining)-1], ".")
	}

	if requireFQDN && subdomain == "" {
		return nil, cursor, false
	}

	r := NewParseResult()
	if subdomain != "" {
		r.Set("subdomain", String(subdomain))
	}
	r.Set("registered_domain", String(registeredDomain))
	r.Set("top_level_domain", String(tld))
	return r, cursor + n, true
}

func isDomainByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '.' || b == '-':
		return true
	}
	return false
}
