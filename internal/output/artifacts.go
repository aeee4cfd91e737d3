package output

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/chrisdamba/reviewclf/internal/cloudwriter"
	log "github.com/sirupsen/logrus"
)

// ArtifactStore persists named report artifacts (markdown, json, png).
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Location(name string) string
}

type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	full := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	return nil
}

func (s *LocalStore) Location(name string) string {
	return filepath.Join(s.dir, name)
}

// CloudStore uploads each artifact as one object under prefix.
type CloudStore struct {
	factory cloudwriter.CloudWriterFactory
	bucket  string
	prefix  string
}

func NewCloudStore(factory cloudwriter.CloudWriterFactory, bucket, prefix string) *CloudStore {
	return &CloudStore{factory: factory, bucket: bucket, prefix: prefix}
}

func (s *CloudStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.factory.NewWriter(ctx, s.bucket, s.key(name))
	if err != nil {
		return fmt.Errorf("failed to create cloud writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *CloudStore) key(name string) string {
	return path.Join(s.prefix, filepath.ToSlash(name))
}

func (s *CloudStore) Location(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(name))
}

// MultiStore writes to the primary store and mirrors to the others. Mirror
// failures are logged, not returned, so the local report always lands.
type MultiStore struct {
	primary ArtifactStore
	mirrors []ArtifactStore
	logger  *log.Entry
}

func NewMultiStore(primary ArtifactStore, mirrors ...ArtifactStore) *MultiStore {
	return &MultiStore{
		primary: primary,
		mirrors: mirrors,
		logger:  log.WithField("component", "artifacts"),
	}
}

func (m *MultiStore) Put(ctx context.Context, name string, data []byte) error {
	if err := m.primary.Put(ctx, name, data); err != nil {
		return err
	}
	for _, mirror := range m.mirrors {
		if err := mirror.Put(ctx, name, data); err != nil {
			m.logger.WithError(err).WithField("artifact", mirror.Location(name)).Warn("failed to mirror artifact")
		}
	}
	return nil
}

func (m *MultiStore) Location(name string) string {
	return m.primary.Location(name)
}
