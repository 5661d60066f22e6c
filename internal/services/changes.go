package services

import (
	"context"

	"finboard/internal/log"
	"finboard/internal/query"
)

// invalidationsFor lists the collections a change to entity affects.
func invalidationsFor(entity string) []query.Key {
	switch entity {
	case EntityTransaction:
		return []query.Key{TransactionsKey, DashboardKey}
	case EntityCategory:
		return []query.Key{CategoriesKey, TransactionsKey}
	case EntityBudget:
		return []query.Key{BudgetsKey, DashboardKey}
	default:
		return nil
	}
}

// ApplyRemoteChange invalidates what another client's write made outdated.
// The next read fetches the server's state; nothing is merged locally.
func ApplyRemoteChange(ctx context.Context, q *query.Client, entity string) int {
	removed := 0
	for _, k := range invalidationsFor(entity) {
		removed += q.Invalidate(k)
	}
	log.FromContext(ctx).DebugContext(ctx, "Applied remote change",
		log.FieldEntity, entity,
		"invalidated", removed)
	return removed
}

// publish sends a change event; failures are logged, never returned,
// since the write itself already succeeded.
func publish(ctx context.Context, n ChangeNotifier, logger *log.Logger, entity, op string, id int64) {
	if n == nil {
		return
	}
	if err := n.PublishChange(ctx, entity, op, id); err != nil {
		logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldEntity, entity,
			log.FieldEntityID, id,
			log.FieldOperation, op,
			log.FieldError, err)
	}
}
