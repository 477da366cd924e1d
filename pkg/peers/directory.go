package peers

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
	"github.com/yahyaAbdulSattar/major-project/pkg/peer"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage"
)

const listPageSize = 100

// Directory tracks every peer this node has heard of. Records are only ever
// created or updated.
type Directory struct {
	mu       sync.Mutex
	repo     storage.PeerRepository
	activity *ActivityLog
	timeout  time.Duration
	now      func() time.Time
}

type Option func(*Directory)

func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		d.now = now
	}
}

func WithAliveTimeout(timeout time.Duration) Option {
	return func(d *Directory) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDirectory returns a directory that records joins and departures in
// activity, which may be nil.
func NewDirectory(repo storage.PeerRepository, activity *ActivityLog, opts ...Option) *Directory {
	d := &Directory{
		repo:     repo,
		activity: activity,
		timeout:  peer.DefAliveTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Connect marks the peer connected and refreshes its last-seen time. It
// reports whether the peer was not connected before the call.
func (d *Directory) Connect(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, pkgerrors.ErrEmptyKey
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	p, err := d.repo.Get(ctx, id)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		p = peer.Peer{ID: id, State: peer.Connected, FirstSeen: now, LastSeen: now}
		if err := d.repo.Create(ctx, p); err != nil {
			return false, err
		}
		d.record(PeerJoined, id, "peer connected")

		return true, nil
	case err != nil:
		return false, err
	}

	joined := p.State != peer.Connected
	p.State = peer.Connected
	p.LastSeen = now
	if err := d.repo.Update(ctx, p); err != nil {
		return false, err
	}
	if joined {
		d.record(PeerJoined, id, "peer reconnected")
	}

	return joined, nil
}

// Disconnect marks a known peer disconnected. Unknown peers are recorded as
// disconnected so that the directory still learns about them.
func (d *Directory) Disconnect(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, pkgerrors.ErrEmptyKey
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.disconnect(ctx, id, "peer disconnected")
}

func (d *Directory) disconnect(ctx context.Context, id, reason string) (bool, error) {
	now := d.now()
	p, err := d.repo.Get(ctx, id)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		p = peer.Peer{ID: id, State: peer.Disconnected, FirstSeen: now, LastSeen: now}

		return false, d.repo.Create(ctx, p)
	case err != nil:
		return false, err
	}
	if p.State == peer.Disconnected {
		return false, nil
	}

	p.State = peer.Disconnected
	if err := d.repo.Update(ctx, p); err != nil {
		return false, err
	}
	d.record(PeerLeft, id, reason)

	return true, nil
}

func (d *Directory) Get(ctx context.Context, id string) (peer.Peer, error) {
	return d.repo.Get(ctx, id)
}

// List returns every known peer ordered by id.
func (d *Directory) List(ctx context.Context) ([]peer.Peer, error) {
	var all []peer.Peer
	for offset := uint64(0); ; offset += listPageSize {
		page, total, err := d.repo.List(ctx, offset, listPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || uint64(len(all)) >= total {
			break
		}
	}
	slices.SortFunc(all, func(a, b peer.Peer) int {
		return strings.Compare(a.ID, b.ID)
	})

	return all, nil
}

func (d *Directory) ConnectedPeers(ctx context.Context) ([]string, error) {
	all, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for _, p := range all {
		if p.State == peer.Connected {
			ids = append(ids, p.ID)
		}
	}

	return ids, nil
}

// Sweep disconnects peers not heard from within the alive timeout and
// returns their ids.
func (d *Directory) Sweep(ctx context.Context, now time.Time) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	all, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, p := range all {
		if !p.Stale(now, d.timeout) {
			continue
		}
		left, err := d.disconnect(ctx, p.ID, "peer timed out")
		if err != nil {
			return stale, err
		}
		if left {
			stale = append(stale, p.ID)
		}
	}

	return stale, nil
}

func (d *Directory) record(kind ActivityKind, id, message string) {
	if d.activity == nil {
		return
	}
	d.activity.Record(kind, id, message, nil)
}
