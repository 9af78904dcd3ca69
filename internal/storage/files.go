// Package storage implements the rendition file store. Files are keyed by
// loop id and stored under one directory per rendition; public URLs are
// derived from the configured base URL, never stored.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Rendition is one of the fixed output formats a loop is stored in.
type Rendition struct {
	Name string
	Ext  string
}

// Renditions is the fixed rendition scheme of the file store.
var Renditions = []Rendition{
	{Name: "mp4_1080p", Ext: ".mp4"},
	{Name: "webm_1080p", Ext: ".webm"},
	{Name: "jpg_1080p", Ext: ".jpg"},
	{Name: "jpg_720p", Ext: ".jpg"},
	{Name: "gif_360p", Ext: ".gif"},
}

// Artifact is one incoming rendition file produced by the extraction pipeline.
type Artifact struct {
	Rendition string
	// SourcePath is the file written by the extraction pipeline; Save moves
	// it into the store.
	SourcePath string
}

// FileStore stores rendition files keyed by loop id.
type FileStore struct {
	dataDir string
	baseURL string
	cdnURL  string
}

// New creates the file store, creating one directory per rendition.
func New(dataDir, baseURL, cdnURL string) (*FileStore, error) {
	for _, rendition := range Renditions {
		if err := os.MkdirAll(filepath.Join(dataDir, rendition.Name), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create rendition directory: %w", err)
		}
	}
	return &FileStore{
		dataDir: dataDir,
		baseURL: baseURL,
		cdnURL:  cdnURL,
	}, nil
}

// Save moves the artifacts of one loop into the store. Unknown rendition
// names are rejected.
func (s *FileStore) Save(id string, artifacts []Artifact) error {
	for _, artifact := range artifacts {
		rendition, ok := renditionByName(artifact.Rendition)
		if !ok {
			return fmt.Errorf("unknown rendition %q", artifact.Rendition)
		}
		dst := s.LocalPath(id, rendition.Name)
		if err := moveFile(artifact.SourcePath, dst); err != nil {
			return fmt.Errorf("failed to store %s for loop %s: %w", rendition.Name, id, err)
		}
	}
	return nil
}

// Delete removes every rendition file of the given loop id. Missing files
// are skipped.
func (s *FileStore) Delete(id string) error {
	var errs []error
	for _, rendition := range Renditions {
		err := os.Remove(s.LocalPath(id, rendition.Name))
		if err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LocalPath returns the on-disk path of one rendition of a loop.
func (s *FileStore) LocalPath(id, renditionName string) string {
	rendition, ok := renditionByName(renditionName)
	if !ok {
		return ""
	}
	return filepath.Join(s.dataDir, rendition.Name, id+rendition.Ext)
}

// PublicURLs derives the public file URLs of a loop from its id. With cdn
// set (and a CDN configured) the CDN base URL is used instead.
func (s *FileStore) PublicURLs(id string, cdn bool) map[string]string {
	base := s.baseURL
	if cdn && s.cdnURL != "" {
		base = s.cdnURL
	}

	urls := make(map[string]string, len(Renditions))
	for _, rendition := range Renditions {
		urls[rendition.Name] = fmt.Sprintf("%s/files/%s/%s%s", base, rendition.Name, id, rendition.Ext)
	}
	return urls
}

func renditionByName(name string) (Rendition, bool) {
	for _, rendition := range Renditions {
		if rendition.Name == name {
			return rendition, true
		}
	}
	return Rendition{}, false
}

// moveFile renames src to dst, falling back to copy+remove across devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Remove(src); err != nil {
		log.Warn("failed to remove source artifact after copy", "path", src, "error", err)
	}
	return nil
}
