// Package headers parses "Name: value" request header flags.
package headers

import (
	"fmt"
	"net/textproto"
	"strings"
)

// Parse converts "Name: value" strings into a header map with canonical
// names. Later entries win. A string without a colon or with an empty name
// is an error.
func Parse(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		name, value, ok := strings.Cut(hdr, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("malformed header %q, want \"Name: value\"", hdr)
		}
		m[textproto.CanonicalMIMEHeaderKey(name)] = strings.TrimSpace(value)
	}
	return m, nil
}

// ToCDP converts m into the shape the DevTools protocol expects.
func ToCDP(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
