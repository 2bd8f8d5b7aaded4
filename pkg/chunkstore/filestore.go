package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
)

// stagedDir is the subtree holding uncommitted chunks under the
// storage root. Everything else at the root is a committed chunk file
// named by its chunk id.
const stagedDir = "staged"

// StagedTTL is how long a staged file may sit unpromoted before the
// sweep removes it. Matches the ticket TTL: once the authorizing ticket
// has expired, no commit for the chunk can arrive.
const StagedTTL = 300 * time.Second

// FileStore is a filesystem-backed Store. The root may be a bounded
// volume mounted on first boot (see Config.CreateMount).
type FileStore struct {
	root    string
	mounted bool
}

// Config holds configuration for the filesystem chunk store.
type Config struct {
	// Root is the storage root directory.
	Root string

	// CreateMount mounts a size-bounded tmpfs at Root before use.
	CreateMount bool

	// MountSizeInMegaByte bounds the tmpfs when CreateMount is set.
	MountSizeInMegaByte uint64
}

// NewFileStore prepares the storage root (and optional bounded mount)
// and returns the store.
func NewFileStore(cfg Config) (*FileStore, error) {
	if cfg.Root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	mounted := false
	if cfg.CreateMount {
		if err := mountVolume(cfg.Root, cfg.MountSizeInMegaByte); err != nil {
			return nil, fmt.Errorf("mounting bounded volume: %w", err)
		}
		mounted = true
	}
	if err := os.MkdirAll(filepath.Join(cfg.Root, stagedDir), 0755); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	return &FileStore{root: cfg.Root, mounted: mounted}, nil
}

// Cleanup detaches the bounded volume if one was mounted. Data is left
// in place otherwise so it survives a crash.
func (s *FileStore) Cleanup() error {
	if !s.mounted {
		return nil
	}
	if err := unmountVolume(s.root); err != nil {
		return err
	}
	return os.RemoveAll(s.root)
}

// Root returns the storage root path.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) committedPath(id string) string {
	return filepath.Join(s.root, filepath.Base(id))
}

func (s *FileStore) stagedPath(id string) string {
	return filepath.Join(s.root, stagedDir, filepath.Base(id))
}

func (s *FileStore) Write(ctx context.Context, id string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(s.stagedPath(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, ErrAlreadyStaged
		}
		return 0, fmt.Errorf("creating staged chunk %s: %w", id, err)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// A partial staged file would block the caller's retry.
		_ = os.Remove(s.stagedPath(id))
		return written, fmt.Errorf("writing staged chunk %s: %w", id, err)
	}
	return written, nil
}

func (s *FileStore) Commit(ctx context.Context, id string) (bool, error) {
	staged := s.stagedPath(id)
	committed := s.committedPath(id)
	if _, err := os.Stat(staged); err == nil {
		if err := os.Rename(staged, committed); err != nil {
			return false, fmt.Errorf("promoting chunk %s: %w", id, err)
		}
		return true, nil
	}
	// Already promoted: commit is idempotent.
	if _, err := os.Stat(committed); err == nil {
		return true, nil
	}
	return false, ErrNotStaged
}

func (s *FileStore) Read(ctx context.Context, id string) (io.ReadCloser, error) {
	f, err := os.Open(s.committedPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrChunkNotFound
		}
		return nil, fmt.Errorf("opening chunk %s: %w", id, err)
	}
	return f, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	err := os.Remove(s.committedPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("deleting chunk %s: %w", id, err)
	}
	return true, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing storage root: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Size(ctx context.Context, id string) (int64, error) {
	info, err := os.Stat(s.committedPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrChunkNotFound
		}
		return 0, fmt.Errorf("stating chunk %s: %w", id, err)
	}
	return info.Size(), nil
}

func (s *FileStore) FreeSpace() (uint64, error) {
	return freeSpace(s.root)
}

// SweepStaged removes staged files older than ttl. A store-file that
// aborted mid-stream leaves staged chunks no commit will ever reach;
// once the authorizing ticket has expired they are unreachable garbage.
func (s *FileStore) SweepStaged(ctx context.Context, ttl time.Duration) {
	dir := filepath.Join(s.root, stagedDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Error("reading staged dir", "dir", dir, "error", err)
		return
	}
	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			logger.Error("removing expired staged chunk", "chunk_id", entry.Name(), "error", err)
			continue
		}
		logger.Info("removed expired staged chunk", "chunk_id", entry.Name())
	}
}

var _ Store = (*FileStore)(nil)
