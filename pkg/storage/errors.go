package storage

import (
	"errors"
	"fmt"

	pkgerrors "github.com/yahyaAbdulSattar/major-project/pkg/errors"
)

var (
	ErrRoundNotFound      = fmt.Errorf("round %w", pkgerrors.ErrNotFound)
	ErrPeerNotFound       = fmt.Errorf("peer %w", pkgerrors.ErrNotFound)
	ErrUnsupportedBackend = errors.New("unsupported storage type")
)
