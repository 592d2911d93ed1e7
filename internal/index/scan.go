package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/codegraphhq/codegraph/internal/config"
)

// FileInfo is a discovered candidate source file.
type FileInfo struct {
	RelPath     string // slash-separated, relative to the project root
	AbsPath     string
	Size        int64
	ModifiedAt  int64
	ContentHash string // SHA-256 hex of the file bytes
}

// scan walks the project root and returns all candidate files that pass the
// include/exclude globs and the size limit. Cancellation is checked per
// directory entry.
func scan(ctx context.Context, root string, cfg *config.Config) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			// Prune directories covered by an exclude pattern.
			if dirExcluded(rel, cfg) {
				return filepath.SkipDir
			}
			return nil
		}
		if !cfg.ShouldInclude(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
			return nil
		}
		files = append(files, FileInfo{
			RelPath:    rel,
			AbsPath:    path,
			Size:       info.Size(),
			ModifiedAt: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// dirExcluded reports whether a directory is covered by an exclude pattern,
// either directly or via a trailing "/**".
func dirExcluded(rel string, cfg *config.Config) bool {
	probe := rel + "/"
	for _, pattern := range cfg.Exclude {
		if matched := matchDirPattern(pattern, rel, probe); matched {
			return true
		}
	}
	return false
}

func matchDirPattern(pattern, rel, probe string) bool {
	if pattern == rel || pattern == rel+"/**" {
		return true
	}
	// "target/**" excludes everything under target/.
	if len(pattern) > 3 && pattern[len(pattern)-3:] == "/**" {
		prefix := pattern[:len(pattern)-3]
		if rel == prefix || len(probe) > len(prefix) && probe[:len(prefix)+1] == prefix+"/" {
			return true
		}
	}
	return false
}

// hashFiles computes the SHA-256 content hash of every candidate in
// parallel, bounded by the CPU count. A file that cannot be read is dropped
// from the returned slice; the read error is not reported.
func hashFiles(ctx context.Context, files []FileInfo) ([]FileInfo, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	hashed := make([]FileInfo, len(files))
	ok := make([]bool, len(files))
	for i := range files {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(files[i].AbsPath)
			if err != nil {
				// Read failures skip the file without logging.
				return nil
			}
			f := files[i]
			f.ContentHash = ContentHash(data)
			f.Size = int64(len(data))
			hashed[i] = f
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]FileInfo, 0, len(files))
	for i := range hashed {
		if ok[i] {
			result = append(result, hashed[i])
		}
	}
	return result, nil
}

// ContentHash returns the SHA-256 hex digest of a file's bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
