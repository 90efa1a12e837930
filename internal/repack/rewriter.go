// Package repack rewrites a single Parquet object through a streaming
// decode/re-encode pass. The rewrite is a structural repack only: row order
// and schema are preserved exactly, the on-disk container layout is rebuilt.
package repack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"s3repack/internal/storage"
)

// Rewriter performs one object's repack: download to a local staging file,
// transcode into a second staging file, upload the result. The codec only
// ever touches local files; remote-filesystem reads have shown hangs in some
// network environments, so the blocking download happens up front.
type Rewriter struct {
	src       storage.Client
	dst       storage.Client
	batchSize int
	tmpDir    string
}

// New creates a Rewriter. tmpDir may be empty to use the system default.
func New(src, dst storage.Client, batchSize int, tmpDir string) *Rewriter {
	return &Rewriter{
		src:       src,
		dst:       dst,
		batchSize: batchSize,
		tmpDir:    tmpDir,
	}
}

// Rewrite transfers one object. Staging files are removed on every exit path.
func (r *Rewriter) Rewrite(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	srcPath, err := stagingFile(r.tmpDir, "repack-src-*.parquet")
	if err != nil {
		return fmt.Errorf("creating source staging file: %w", err)
	}
	defer os.Remove(srcPath)

	dstPath, err := stagingFile(r.tmpDir, "repack-dst-*.parquet")
	if err != nil {
		return fmt.Errorf("creating destination staging file: %w", err)
	}
	defer os.Remove(dstPath)

	if err := r.src.DownloadFile(ctx, srcBucket, srcKey, srcPath); err != nil {
		return fmt.Errorf("downloading s3://%s/%s: %w", srcBucket, srcKey, err)
	}

	if err := transcode(srcPath, dstPath, r.batchSize); err != nil {
		return fmt.Errorf("repacking %s: %w", srcKey, err)
	}

	if err := r.dst.UploadFile(ctx, dstBucket, dstKey, dstPath); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", dstBucket, dstKey, err)
	}

	return nil
}

// stagingFile reserves a uniquely named temp file and returns its path. The
// handle is closed immediately; the codec and the store client reopen it.
func stagingFile(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// transcode copies every row from srcPath to dstPath under the source's own
// schema, reading at most batchSize rows per iteration. batchSize bounds
// memory only; the output rows are identical in content and order. A
// zero-row source still produces a finalized file with the same schema.
func transcode(srcPath, dstPath string, batchSize int) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	stat, err := src.Stat()
	if err != nil {
		return err
	}

	pf, err := parquet.OpenFile(src, stat.Size())
	if err != nil {
		return fmt.Errorf("opening parquet file: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}

	writer := parquet.NewWriter(dst, pf.Schema())
	if err := copyRows(pf, writer, batchSize); err != nil {
		dst.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		dst.Close()
		return fmt.Errorf("finalizing parquet file: %w", err)
	}

	return dst.Close()
}

func copyRows(pf *parquet.File, writer *parquet.Writer, batchSize int) error {
	buf := make([]parquet.Row, batchSize)

	for _, rowGroup := range pf.RowGroups() {
		rows := rowGroup.Rows()
		if err := copyRowGroup(rows, writer, buf); err != nil {
			rows.Close()
			return err
		}
		if err := rows.Close(); err != nil {
			return err
		}
	}

	return nil
}

func copyRowGroup(rows parquet.Rows, writer *parquet.Writer, buf []parquet.Row) error {
	for {
		n, err := rows.ReadRows(buf)
		if n > 0 {
			if _, werr := writer.WriteRows(buf[:n]); werr != nil {
				return fmt.Errorf("writing rows: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading rows: %w", err)
		}
	}
}
