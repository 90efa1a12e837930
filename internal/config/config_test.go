package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("src", "", "")
	flags.String("dst", "", "")
	flags.Int("batch-size", 65536, "")
	flags.Int("workers", 0, "")
	flags.Bool("no-skip-existing", false, "")
	flags.StringSlice("extensions", nil, "")
	flags.String("journal", "", "")
	flags.String("metrics-addr", "", "")
	flags.String("log-level", "info", "")
	flags.String("src-endpoint", "", "")
	flags.String("src-access-key", "", "")
	flags.String("src-secret-key", "", "")
	flags.Bool("src-secure", false, "")
	flags.String("dst-endpoint", "", "")
	flags.String("dst-access-key", "", "")
	flags.String("dst-secret-key", "", "")
	flags.Bool("dst-secure", true, "")
	return flags
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    Location
		wantErr bool
	}{
		{
			name: "bucket and prefix",
			uri:  "s3://my-bucket/path/to/prefix",
			want: Location{Bucket: "my-bucket", Prefix: "path/to/prefix/"},
		},
		{
			name: "bucket only",
			uri:  "s3://my-bucket",
			want: Location{Bucket: "my-bucket", Prefix: ""},
		},
		{
			name: "bucket with trailing slash",
			uri:  "s3://my-bucket/",
			want: Location{Bucket: "my-bucket", Prefix: ""},
		},
		{
			name: "prefix already normalized",
			uri:  "s3://b/data/",
			want: Location{Bucket: "b", Prefix: "data/"},
		},
		{name: "wrong scheme", uri: "gs://bucket/prefix", wantErr: true},
		{name: "no scheme", uri: "bucket/prefix", wantErr: true},
		{name: "empty bucket", uri: "s3:///prefix", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{
		"--src", "s3://src-bucket/in",
		"--dst", "s3://dst-bucket/out",
		"--src-endpoint", "minio.local:9000",
		"--dst-endpoint", "minio.local:9000",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, 65536, cfg.Repack.BatchSize)
	assert.Equal(t, 0, cfg.Repack.Workers)
	assert.True(t, cfg.Repack.SkipExisting)
	assert.Equal(t, []string{".parquet", ".parq"}, cfg.Repack.Extensions)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadNoSkipExisting(t *testing.T) {
	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{
		"--src", "s3://a/in",
		"--dst", "s3://b/out",
		"--src-endpoint", "e1",
		"--dst-endpoint", "e2",
		"--no-skip-existing",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.False(t, cfg.Repack.SkipExisting)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing src", args: []string{"--dst", "s3://b/out", "--src-endpoint", "e", "--dst-endpoint", "e"}},
		{name: "missing dst", args: []string{"--src", "s3://a/in", "--src-endpoint", "e", "--dst-endpoint", "e"}},
		{name: "bad src scheme", args: []string{"--src", "file:///a", "--dst", "s3://b/out", "--src-endpoint", "e", "--dst-endpoint", "e"}},
		{name: "zero batch size", args: []string{"--src", "s3://a/in", "--dst", "s3://b/out", "--src-endpoint", "e", "--dst-endpoint", "e", "--batch-size", "0"}},
		{name: "negative workers", args: []string{"--src", "s3://a/in", "--dst", "s3://b/out", "--src-endpoint", "e", "--dst-endpoint", "e", "--workers", "-1"}},
		{name: "missing endpoints", args: []string{"--src", "s3://a/in", "--dst", "s3://b/out"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := newFlagSet()
			require.NoError(t, flags.Parse(tt.args))
			_, err := Load("", flags)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
source:
  endpoint: src.local:9000
  access_key: ak
  secret_key: sk
target:
  endpoint: dst.local:9000
  access_key: ak2
  secret_key: sk2
repack:
  src: s3://src-bucket/in
  dst: s3://dst-bucket/out
  batch_size: 1024
  workers: 4
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	flags := newFlagSet()
	require.NoError(t, flags.Parse([]string{"--workers", "8"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "src.local:9000", cfg.Source.Endpoint)
	assert.Equal(t, 1024, cfg.Repack.BatchSize)
	assert.Equal(t, 8, cfg.Repack.Workers, "flag overrides file")
	assert.Equal(t, "debug", cfg.LogLevel)
}
