package directors

import (
	"shopdb/src/engine"

	"go.uber.org/zap"
)

// recordMutation journals a committed mutation and hands the persistence
// collaborator the full post-mutation record set for every touched kind.
// The mutation itself is already committed; collaborator failures are logged
// and never unwind store state.
func recordMutation(store *engine.Store, snapshots engine.SnapshotStore, journal *engine.Journal,
	logger *zap.SugaredLogger, operation, details string, kinds ...engine.EntityKind) {

	if journal != nil && len(kinds) > 0 {
		if err := journal.AddEntry(operation, kinds[0], details); err != nil && logger != nil {
			logger.Warnf("Failed to journal %s: %v", operation, err)
		}
	}

	if snapshots == nil {
		return
	}
	for _, kind := range kinds {
		records, err := store.ExportKind(kind)
		if err != nil {
			if logger != nil {
				logger.Warnf("Failed to export kind %s after %s: %v", kind, operation, err)
			}
			continue
		}
		if err := snapshots.SaveSnapshot(kind, records); err != nil && logger != nil {
			logger.Warnf("Failed to save snapshot for kind %s after %s: %v", kind, operation, err)
		}
	}
}
