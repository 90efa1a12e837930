package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "empty", prefix: "", want: ""},
		{name: "plain", prefix: "data", want: "data/"},
		{name: "already normalized", prefix: "data/", want: "data/"},
		{name: "leading slash", prefix: "/data/raw", want: "data/raw/"},
		{name: "leading slash only", prefix: "/", want: ""},
		{name: "nested", prefix: "a/b/c", want: "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePrefix(tt.prefix))
		})
	}
}

func TestRelKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		prefix string
		want   string
	}{
		{name: "under prefix", key: "src/sub/file.parquet", prefix: "src/", want: "sub/file.parquet"},
		{name: "empty prefix", key: "file.parquet", prefix: "", want: "file.parquet"},
		{name: "outside prefix falls back to whole key", key: "other/file.parquet", prefix: "src/", want: "other/file.parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelKey(tt.key, tt.prefix))
		})
	}
}

func TestDestKey(t *testing.T) {
	got := DestKey("src/sub/file.parquet", "src/", "dst2/")
	assert.Equal(t, "dst2/sub/file.parquet", got)
}

func TestDestKeyInjective(t *testing.T) {
	keys := []string{
		"src/a.parquet",
		"src/b.parquet",
		"src/sub/a.parquet",
		"src/sub/deep/a.parquet",
	}

	seen := make(map[string]string, len(keys))
	for _, k := range keys {
		dst := DestKey(k, "src/", "out/")
		prev, dup := seen[dst]
		assert.False(t, dup, "keys %q and %q collide on %q", prev, k, dst)
		seen[dst] = k
	}
}

func TestExtensionFilterMatch(t *testing.T) {
	filter := ExtensionFilter(DefaultExtensions)

	keys := []string{"a/1.parquet", "a/2.parq", "a/readme.txt"}
	var matched []string
	for _, k := range keys {
		if filter.Match(k) {
			matched = append(matched, k)
		}
	}

	assert.Equal(t, []string{"a/1.parquet", "a/2.parq"}, matched)
}

func TestExtensionFilterCaseInsensitive(t *testing.T) {
	filter := ExtensionFilter(DefaultExtensions)
	assert.True(t, filter.Match("a/UPPER.PARQUET"))
	assert.False(t, filter.Match("a/parquet.txt"))
}
