package query

import (
	"net/url"
	"strings"
)

// Key identifies a cached query as ordered segments, e.g.
// transactions / type=EXPENSE / category=all.
type Key []string

func NewKey(segments ...string) Key {
	return Key(segments)
}

// With returns a copy of k extended by segments.
func (k Key) With(segments ...string) Key {
	out := make(Key, 0, len(k)+len(segments))
	out = append(out, k...)
	return append(out, segments...)
}

// String joins the escaped segments with "/".
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// HasPrefix matches whole segments: transactions is a prefix of
// transactions/type=all but not of transactionsx.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) Key {
	if s == "" {
		return Key{}
	}
	parts := strings.Split(s, "/")
	k := make(Key, len(parts))
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			k[i] = u
		} else {
			k[i] = p
		}
	}
	return k
}

func matchesPrefix(key, prefix string) bool {
	return prefix == "" || key == prefix || strings.HasPrefix(key, prefix+"/")
}
