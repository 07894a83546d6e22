package dspace

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
)

const lockFileName = ".crawl.lock"

// ErrStoreLocked is returned when another crawl holds the files store.
var ErrStoreLocked = errors.New("files store is locked by another crawl")

// FileStore keeps downloaded files under <root>/full/<sha1(url)><ext>.
type FileStore struct {
	root string
	lock *flock.Flock
}

// NewFileStore creates the store directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "full"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create files store: %w", err)
	}
	return &FileStore{
		root: root,
		lock: flock.New(filepath.Join(root, lockFileName)),
	}, nil
}

// Root returns the store directory.
func (s *FileStore) Root() string {
	return s.root
}

// Lock takes the single-writer lock without blocking.
func (s *FileStore) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire files store lock: %w", err)
	}
	if !ok {
		return ErrStoreLocked
	}
	return nil
}

// Unlock releases the lock taken by Lock.
func (s *FileStore) Unlock() error {
	return s.lock.Unlock()
}

// RelativePath is the store path for rawURL, relative to the root.
func RelativePath(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = path.Ext(u.Path)
	}
	return path.Join("full", hex.EncodeToString(sum[:])+ext)
}

// Download stores rawURL unless it is already present.
func (s *FileStore) Download(ctx context.Context, client *Client, rawURL string) (corpus.FileRef, error) {
	ref := corpus.FileRef{URL: rawURL, Path: RelativePath(rawURL)}
	destPath := filepath.Join(s.root, filepath.FromSlash(ref.Path))

	if _, err := os.Stat(destPath); err == nil {
		slog.Debug("Using stored file", "url", rawURL, "path", destPath)
		return ref, nil
	}

	resp, err := client.Get(ctx, rawURL)
	if err != nil {
		return ref, err
	}
	defer resp.Body.Close()

	// A partial download must never sit at destPath.
	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return ref, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return ref, fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return ref, fmt.Errorf("failed to move file: %w", err)
	}

	slog.Debug("Downloaded file", "url", rawURL, "path", destPath, "bytes", written)
	return ref, nil
}

func (s *FileStore) path(ref corpus.FileRef) string {
	return filepath.Join(s.root, filepath.FromSlash(ref.Path))
}
