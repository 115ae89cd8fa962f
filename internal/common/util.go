package common

import "path"

// WipeByteArray overwrites the contents of b with zeros. Used to drop
// passwords from memory once they were sent. Nil-safe.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BaseName returns the last segment of a slash separated path or URL,
// ignoring any query string. Empty input yields an empty string.
func BaseName(p string) string {
	if p == "" {
		return ""
	}
	for i := 0; i < len(p); i++ {
		if p[i] == '?' || p[i] == '#' {
			p = p[:i]
			break
		}
	}
	b := path.Base(p)
	if b == "." || b == "/" {
		return ""
	}
	return b
}
