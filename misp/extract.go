package misp

import (
	"net"
	"net/url"
	"strings"
)

// ExpandAttribute derives extra attributes from a composite value.
// For example, a url attribute "http://198.51.100.7/payload.sh" produces:
// - an ip-dst attribute for the embedded address
// - or a domain attribute when the host is a name
// Composite types like ip-dst|port yield their plain address part, so a
// consumer matching on bare addresses still catches the indicator.
func ExpandAttribute(a *Attribute) []*Attribute {
	value := a.Value()
	var derived []*Attribute

	switch a.Type() {
	case "url", "uri", "link":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return nil
		}
		u, err := url.Parse(value)
		if err != nil {
			return nil
		}
		host := u.Hostname()
		if host == "" || host == value {
			return nil
		}
		if net.ParseIP(host) != nil {
			derived = append(derived, derivedFrom(a, "ip-dst", host, "extracted-from-url"))
		} else {
			derived = append(derived, derivedFrom(a, "domain", host, "extracted-from-url"))
		}

	case "ip-dst|port", "ip-src|port", "domain|ip", "hostname|port":
		parts := strings.FieldsFunc(value, func(r rune) bool {
			return r == ':' || r == '/' || r == '?' || r == '|'
		})
		for _, part := range parts {
			if net.ParseIP(part) != nil && part != value {
				attrType := "ip-dst"
				if strings.HasPrefix(a.Type(), "ip-src") {
					attrType = "ip-src"
				}
				derived = append(derived, derivedFrom(a, attrType, part, "extracted-from-value"))
				break // Only extract the first IP found
			}
		}
	}

	return derived
}

// ExpandEvent adds derived attributes for every composite value on the event
// and returns how many were added. Values the event already carries are not
// duplicated.
func ExpandEvent(ev *Event) int {
	seen := make(map[string]struct{})
	for _, a := range ev.Attributes() {
		seen[a.Type()+"|"+a.Value()] = struct{}{}
	}

	added := 0
	for _, a := range ev.Attributes() {
		for _, d := range ExpandAttribute(a) {
			key := d.Type() + "|" + d.Value()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			ev.AddAttribute(d)
			added++
		}
	}
	return added
}

func derivedFrom(src *Attribute, attrType, value, marker string) *Attribute {
	d := NewAttribute()
	d.assign("type", attrType)
	d.assign("category", DefaultCategory(attrType))
	d.assign("value", value)
	d.assign("to_ids", src.ToIDS())
	d.AddTag(NewTagNamed(marker))
	for _, t := range src.Tags() {
		d.AddTag(NewTagNamed(t.Name()))
	}
	return d
}

// GuessType infers the attribute type of a bare value, the way the
// platform's freetext import does. Ambiguous values fall back to "text".
func GuessType(value string) string {
	value = strings.TrimSpace(value)
	if net.ParseIP(value) != nil {
		return "ip-dst"
	}
	if strings.Contains(value, "://") {
		return "url"
	}
	if isHex(value) {
		switch len(value) {
		case 32:
			return "md5"
		case 40:
			return "sha1"
		case 64:
			return "sha256"
		case 128:
			return "sha512"
		}
	}
	if strings.Contains(value, "@") {
		return "email-src"
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		if net.ParseIP(host) != nil {
			return "ip-dst|port"
		}
		return "hostname|port"
	}
	if strings.Contains(value, ".") {
		return "domain"
	}
	return "text"
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeValue canonicalizes an attribute value for matching
func NormalizeValue(attrType, value string) string {
	switch attrType {
	case "url", "uri", "link":
		// Normalize URL (lowercase, remove trailing slash)
		value = strings.ToLower(strings.TrimSpace(value))
		return strings.TrimSuffix(value, "/")

	case "domain", "hostname", "email-src", "email-dst":
		return strings.ToLower(strings.TrimSpace(value))

	case "md5", "sha1", "sha256", "sha512":
		// Hex digests compare case-insensitively, store them lowercase
		return strings.ToLower(strings.TrimSpace(value))

	case "ip-src", "ip-dst":
		return strings.TrimSpace(value)

	default:
		return value
	}
}
