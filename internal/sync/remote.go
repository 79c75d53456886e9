// Package sync pushes sealed vault containers to a remote backend and
// pulls them back. Containers travel as opaque blobs; the key and the
// plaintext never leave the machine.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/picvet/lox/internal/config"
	"github.com/picvet/lox/internal/events"
	"github.com/picvet/lox/internal/models"
)

// Per-call deadlines. Metadata calls are small; payload calls move a
// whole container.
const (
	metadataTimeout = 10 * time.Second
	payloadTimeout  = 30 * time.Second
)

const defaultListLimit = 20

// ErrNoRevisions reports an empty remote.
var ErrNoRevisions = errors.New("no remote revisions found")

// Revision is one pushed copy of a sealed container.
type Revision struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Data     []byte    `json:"-"`
	PushedAt time.Time `json:"pushed_at"`
}

// RevisionInfo describes a stored revision without its payload.
type RevisionInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	PushedAt time.Time `json:"pushed_at"`
}

// Remote stores sealed containers. Implementations never look inside
// the payload bytes.
type Remote interface {
	// Push uploads a revision and returns its remote id. Missing ID,
	// Name, or PushedAt fields are filled in.
	Push(ctx context.Context, rev Revision) (string, error)

	// PullLatest returns the newest revision, or ErrNoRevisions.
	PullLatest(ctx context.Context) (*Revision, error)

	// List returns revision metadata, newest first.
	List(ctx context.Context, limit int) ([]RevisionInfo, error)
}

// New builds the backend named by cfg.Backend.
func New(cfg config.SyncConfig, logger *events.Logger) (Remote, error) {
	switch cfg.Backend {
	case "dynamodb":
		return NewDynamoRemote(cfg, logger)
	case "s3":
		return NewS3Remote(cfg, logger)
	case "":
		return nil, fmt.Errorf("%w: sync backend not configured", models.ErrInvalidConfig)
	default:
		return nil, fmt.Errorf("%w: unknown sync backend %q", models.ErrInvalidConfig, cfg.Backend)
	}
}

func syncErr(backend, phase string, err error) error {
	return &models.SyncError{Backend: backend, Phase: phase, Err: err}
}
