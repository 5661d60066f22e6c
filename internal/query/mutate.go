package query

import (
	"context"

	"finboard/internal/log"
)

// Strategy is how a successful mutation updates cached collections.
type Strategy int

const (
	// PatchInPlace edits the cached collection with the mutation result.
	PatchInPlace Strategy = iota
	// InvalidateAll drops the collection and all its filtered variants.
	InvalidateAll
)

func (s Strategy) String() string {
	switch s {
	case PatchInPlace:
		return "patch_in_place"
	case InvalidateAll:
		return "invalidate_all"
	default:
		return "unknown"
	}
}

// Mutation describes the cache effects of one write.
type Mutation[R any] struct {
	Name     string
	Strategy Strategy
	Target   Key
	// Patch applies the result to Target under PatchInPlace.
	Patch   func(result R) error
	Cascade []Key
}

// Mutate runs fn exactly once. On success it applies the strategy and then
// the cascade invalidations; on failure the cache is left untouched.
func Mutate[R any](ctx context.Context, c *Client, m Mutation[R], fn func(ctx context.Context) (R, error)) (R, error) {
	result, err := fn(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Mutation failed",
			log.FieldOperation, m.Name,
			log.FieldCacheKey, m.Target.String(),
			log.FieldError, err)
		return result, err
	}

	switch m.Strategy {
	case PatchInPlace:
		if m.Patch != nil {
			if perr := m.Patch(result); perr != nil {
				// the write succeeded; fall back to refetching the collection
				c.logger.WarnContext(ctx, "Patch failed, invalidating", log.FieldCacheKey, m.Target.String(), log.FieldError, perr)
				c.Invalidate(m.Target)
			}
		}
	case InvalidateAll:
		c.Invalidate(m.Target)
	}
	for _, k := range m.Cascade {
		c.Invalidate(k)
	}

	c.logger.DebugContext(ctx, "Mutation cache effects applied",
		log.FieldOperation, m.Name,
		log.FieldCacheKey, m.Target.String(),
		"strategy", m.Strategy.String())
	return result, nil
}
