package catalog

import (
	"context"

	"github.com/smileynet/roster/internal/remote"
)

// Source is the remote catalog as seen by this package.
// *remote.Client satisfies it.
type Source interface {
	List(ctx context.Context, q remote.ListQuery) (remote.ListResponse, error)
	Entity(ctx context.Context, id string) (remote.Entity, error)
	RelatedName(ctx context.Context, url string) (string, error)
}

var _ Source = (*remote.Client)(nil)
