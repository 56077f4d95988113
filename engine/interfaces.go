package engine

import (
	"context"

	"tripquest/core"
)

// Storage persists the canonical ProgressRecord. Load returns ok=false when
// no record exists yet; adapters must also report corrupt or unparseable
// documents as absent rather than failing, so the engine can fall back to a
// fresh record.
type Storage interface {
	Load(ctx context.Context) (rec core.ProgressRecord, ok bool, err error)
	Save(ctx context.Context, rec core.ProgressRecord) error
}

// SatelliteStore holds page-owned auxiliary ID sets (explored map regions,
// explored beaches, and the like) under their own logical keys. It is a
// looser contract than the record itself: each set survives reload
// independently and is never touched by engine operations.
type SatelliteStore interface {
	LoadSet(ctx context.Context, key string) ([]string, error)
	SaveSet(ctx context.Context, key string, ids []string) error
}
