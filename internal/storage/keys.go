package storage

import "strings"

// DefaultExtensions are the columnar file suffixes selected for rewriting.
var DefaultExtensions = []string{".parquet", ".parq"}

// ExtensionFilter selects keys by lowercased filename suffix.
type ExtensionFilter []string

// Match reports whether key ends with one of the configured extensions.
func (f ExtensionFilter) Match(key string) bool {
	lkey := strings.ToLower(key)
	for _, ext := range f {
		if strings.HasSuffix(lkey, ext) {
			return true
		}
	}
	return false
}

// NormalizePrefix strips a leading slash and, when the prefix is non-empty,
// guarantees a trailing slash so prefix math stays unambiguous.
func NormalizePrefix(prefix string) string {
	p := strings.TrimPrefix(prefix, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// RelKey returns the suffix of key after prefix. A key outside the prefix is
// returned unchanged rather than treated as an error.
func RelKey(key, prefix string) string {
	if prefix == "" || !strings.HasPrefix(key, prefix) {
		return key
	}
	return key[len(prefix):]
}

// DestKey re-roots a source key from srcPrefix under dstPrefix. Both prefixes
// must already be normalized.
func DestKey(srcKey, srcPrefix, dstPrefix string) string {
	return dstPrefix + RelKey(srcKey, srcPrefix)
}
