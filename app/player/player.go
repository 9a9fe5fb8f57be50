// Package player decides whether a channel's embed URL may be rendered in the
// sandboxed player frame.
package player

import (
	"errors"
	"net/url"
	"strings"
)

// Sandbox is the only capability set granted to embedded players.
const Sandbox = "allow-scripts allow-same-origin allow-presentation"

var (
	ErrMalformed   = errors.New("embed link is not a valid URL")
	ErrScheme      = errors.New("embed link must use http or https")
	ErrHostBlocked = errors.New("embed link host is not allowed")
)

// Policy validates embed URLs. With no AllowedHosts any http(s) host passes;
// otherwise the host must equal an entry or be a subdomain of one.
type Policy struct {
	AllowedHosts []string
}

func (p Policy) Validate(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ErrMalformed
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrScheme
	}
	if len(p.AllowedHosts) == 0 {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range p.AllowedHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return ErrHostBlocked
}

// Allowed reports whether raw passes Validate.
func (p Policy) Allowed(raw string) bool {
	return p.Validate(raw) == nil
}
