package fl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
)

const checkpointExt = ".snap"

// CheckpointTag names the checkpoint of a completed round.
func CheckpointTag(roundNumber uint64) string {
	return fmt.Sprintf("round-%d", roundNumber)
}

// FileCheckpoints keeps merged snapshots as encoded files in one directory.
type FileCheckpoints struct {
	dir string
	mu  sync.RWMutex
}

func NewFileCheckpoints(dir string) (*FileCheckpoints, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &FileCheckpoints{dir: dir}, nil
}

func (fc *FileCheckpoints) Save(_ context.Context, roundNumber uint64, s tensor.Snapshot) (string, error) {
	data, err := tensor.Encode(s)
	if err != nil {
		return "", err
	}

	tag := CheckpointTag(roundNumber)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	tmp, err := os.CreateTemp(fc.dir, tag+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return "", fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(fc.dir, tag+checkpointExt)); err != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("failed to store checkpoint: %w", err)
	}

	return tag, nil
}

func (fc *FileCheckpoints) Load(_ context.Context, tag string) (tensor.Snapshot, error) {
	name := sanitizeTag(tag)
	if name == "" {
		return nil, fmt.Errorf("%w: invalid checkpoint tag %q", pkgerrors.ErrInvalidData, tag)
	}

	fc.mu.RLock()
	defer fc.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(fc.dir, name+checkpointExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checkpoint %s: %w", name, pkgerrors.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	return tensor.Decode(data)
}

func (fc *FileCheckpoints) List(_ context.Context) ([]string, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	entries, err := os.ReadDir(fc.dir)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if tag, ok := strings.CutSuffix(entry.Name(), checkpointExt); ok {
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)

	return tags, nil
}

// sanitizeTag keeps only characters safe for a file name so a tag can never
// escape the checkpoints directory.
func sanitizeTag(tag string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(tag) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
