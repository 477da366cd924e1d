// Package registry keeps merged round snapshots as OCI artifacts, either in
// a remote registry or in a local OCI image layout.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/tensor"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const (
	ArtifactType      = "application/vnd.fedpeer.checkpoint.v1"
	MediaTypeSnapshot = "application/vnd.fedpeer.snapshot.v1+cbor+snappy"

	AnnotationRound = "org.fedpeer.round"
	AnnotationPeer  = "org.fedpeer.peer"

	TypeNone   = ""
	TypeLocal  = "local"
	TypeRemote = "remote"
)

var (
	ErrUnsupportedType = errors.New("unsupported checkpoint registry type")
	errNoSnapshotLayer = errors.New("checkpoint manifest has no snapshot layer")
)

type Config struct {
	Type         string `env:"TYPE"         envDefault:""`
	Root         string `env:"ROOT"         envDefault:"./data/checkpoints"`
	URL          string `env:"URL"          envDefault:"localhost:5000"`
	Repository   string `env:"REPOSITORY"   envDefault:"fedpeer/checkpoints"`
	PlainHTTP    bool   `env:"PLAIN_HTTP"   envDefault:"true"`
	Authenticate bool   `env:"AUTHENTICATE" envDefault:"false"`
	Username     string `env:"USERNAME"     envDefault:""`
	Password     string `env:"PASSWORD"     envDefault:""`
	Token        string `env:"PAT"          envDefault:""`
}

func (c Config) Validate() error {
	switch c.Type {
	case TypeNone:
		return nil
	case TypeLocal:
		if c.Root == "" {
			return errors.New("checkpoint root is required for a local registry")
		}
	case TypeRemote:
		if c.URL == "" || c.Repository == "" {
			return errors.New("registry url and repository are required")
		}
		if _, err := url.Parse("//" + c.URL); err != nil {
			return fmt.Errorf("registry url is not valid: %w", err)
		}
		if c.Authenticate && c.Token == "" && (c.Username == "" || c.Password == "") {
			return errors.New("either PAT or username/password must be provided when authentication is enabled")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type)
	}

	return nil
}

// Checkpoints stores each snapshot as a single layer artifact tagged
// round-<n>.
type Checkpoints struct {
	target oras.Target
	peerID string
}

func New(target oras.Target, peerID string) *Checkpoints {
	return &Checkpoints{target: target, peerID: peerID}
}

// NewFromConfig opens the configured target. It returns nil when
// checkpoints are disabled.
func NewFromConfig(cfg Config, peerID string) (*Checkpoints, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeLocal:
		store, err := oci.New(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint layout: %w", err)
		}

		return New(store, peerID), nil
	case TypeRemote:
		repo, err := remote.NewRepository(cfg.URL + "/" + cfg.Repository)
		if err != nil {
			return nil, fmt.Errorf("failed to create repository: %w", err)
		}
		repo.PlainHTTP = cfg.PlainHTTP
		setupAuthentication(cfg, repo)

		return New(repo, peerID), nil
	default:
		return nil, nil
	}
}

func setupAuthentication(cfg Config, repo *remote.Repository) {
	if !cfg.Authenticate {
		return
	}

	cred := auth.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if cfg.Password == "" && cfg.Token != "" {
		cred = auth.Credential{
			Username:    cfg.Username,
			AccessToken: cfg.Token,
		}
	}

	repo.Client = &auth.Client{
		Client:     retry.DefaultClient,
		Cache:      auth.NewCache(),
		Credential: auth.StaticCredential(cfg.URL, cred),
	}
}

func (c *Checkpoints) Save(ctx context.Context, roundNumber uint64, s tensor.Snapshot) (string, error) {
	blob, err := tensor.Encode(s)
	if err != nil {
		return "", err
	}

	layer, err := oras.PushBytes(ctx, c.target, MediaTypeSnapshot, blob)
	switch {
	case errors.Is(err, errdef.ErrAlreadyExists):
		// identical weights were checkpointed before
		layer = content.NewDescriptorFromBytes(MediaTypeSnapshot, blob)
	case err != nil:
		return "", fmt.Errorf("failed to push snapshot: %w", err)
	}

	annotations := map[string]string{
		AnnotationRound: strconv.FormatUint(roundNumber, 10),
	}
	if c.peerID != "" {
		annotations[AnnotationPeer] = c.peerID
	}
	manifest, err := oras.PackManifest(ctx, c.target, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ocispec.Descriptor{layer},
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return "", fmt.Errorf("failed to pack checkpoint manifest: %w", err)
	}

	tag := fl.CheckpointTag(roundNumber)
	if err := c.target.Tag(ctx, manifest, tag); err != nil {
		return "", fmt.Errorf("failed to tag checkpoint: %w", err)
	}

	return tag, nil
}

func (c *Checkpoints) Load(ctx context.Context, tag string) (tensor.Snapshot, error) {
	if tag == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	desc, err := c.target.Resolve(ctx, tag)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			return nil, fmt.Errorf("checkpoint %s %w", tag, pkgerrors.ErrNotFound)
		}

		return nil, fmt.Errorf("failed to resolve checkpoint %s: %w", tag, err)
	}

	raw, err := content.FetchAll(ctx, c.target, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoint manifest: %w", err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint manifest: %w", err)
	}

	for _, layer := range manifest.Layers {
		if layer.MediaType != MediaTypeSnapshot {
			continue
		}
		blob, err := content.FetchAll(ctx, c.target, layer)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
		}

		return tensor.Decode(blob)
	}

	return nil, errNoSnapshotLayer
}
