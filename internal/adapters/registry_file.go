package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"registry-pruner/internal/ports"
	"registry-pruner/internal/types"
)

// RegistryFileAdapter serves a registry snapshot from a YAML file. Deletions
// rewrite the file, so a dry run followed by an apply run can be inspected
// offline.
type RegistryFileAdapter struct {
	Path string
	mu   *sync.Mutex
}

func NewRegistryFileAdapter(path string) RegistryFileAdapter {
	return RegistryFileAdapter{Path: path, mu: &sync.Mutex{}}
}

func (a RegistryFileAdapter) ListImages(ctx context.Context, repository string) ([]types.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.lock()
	defer a.unlock()
	snapshot, err := a.load()
	if err != nil {
		return nil, err
	}
	images, ok := snapshot.Repositories[repository]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("repository not found: " + repository)
	}
	return append([]types.ImageRecord(nil), images...), nil
}

func (a RegistryFileAdapter) DeleteByTag(ctx context.Context, repository string, tag string) error {
	if strings.TrimSpace(tag) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("image tag is empty")
	}
	return a.remove(ctx, repository, func(image types.ImageRecord) bool {
		return image.Tag == tag
	})
}

func (a RegistryFileAdapter) DeleteByDigest(ctx context.Context, repository string, digest string) error {
	if strings.TrimSpace(digest) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("image digest is empty")
	}
	return a.remove(ctx, repository, func(image types.ImageRecord) bool {
		return image.Digest == digest
	})
}

// remove drops every record matching match. Removing an image that is
// already gone succeeds.
func (a RegistryFileAdapter) remove(ctx context.Context, repository string, match func(types.ImageRecord) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.lock()
	defer a.unlock()
	snapshot, err := a.load()
	if err != nil {
		return err
	}
	images, ok := snapshot.Repositories[repository]
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("repository not found: " + repository)
	}
	kept := make([]types.ImageRecord, 0, len(images))
	for _, image := range images {
		if match(image) {
			continue
		}
		kept = append(kept, image)
	}
	if len(kept) == len(images) {
		return nil
	}
	snapshot.Repositories[repository] = kept
	return a.save(snapshot)
}

func (a RegistryFileAdapter) load() (types.RegistrySnapshotFile, error) {
	if strings.TrimSpace(a.Path) == "" {
		return types.RegistrySnapshotFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("registry file path is empty")
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return types.RegistrySnapshotFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read registry file").
			WithCause(err)
	}
	var snapshot types.RegistrySnapshotFile
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return types.RegistrySnapshotFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse registry file").
			WithCause(err)
	}
	if snapshot.Repositories == nil {
		snapshot.Repositories = map[string][]types.ImageRecord{}
	}
	return snapshot, nil
}

func (a RegistryFileAdapter) save(snapshot types.RegistrySnapshotFile) error {
	return WriteRegistrySnapshot(a.Path, snapshot, true)
}

// WriteRegistrySnapshot writes snapshot in the format read by
// RegistryFileAdapter. An existing file is only replaced when overwrite is set.
func WriteRegistrySnapshot(path string, snapshot types.RegistrySnapshotFile, overwrite bool) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("registry file path is empty")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg("registry file already exists")
		}
	}
	if snapshot.Repositories == nil {
		snapshot.Repositories = map[string][]types.ImageRecord{}
	}
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode registry file").
			WithCause(err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create registry file directory").
				WithCause(err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write registry file").
			WithCause(err)
	}
	return nil
}

func (a RegistryFileAdapter) lock() {
	if a.mu != nil {
		a.mu.Lock()
	}
}

func (a RegistryFileAdapter) unlock() {
	if a.mu != nil {
		a.mu.Unlock()
	}
}

var _ ports.RegistryPort = RegistryFileAdapter{}
