package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/config"
)

// Open returns the report archive selected by STORAGE_BACKEND, or nil when
// archiving is disabled
func Open(ctx context.Context, cfg *config.Config) (StorageInterface, error) {
	switch cfg.StorageBackend {
	case "azure":
		azure, err := NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, err
		}
		return azure, nil
	case "local":
		local, err := NewLocalStorage(cfg.LocalStorageDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	default:
		return nil, nil
	}
}

var reportDate = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\.csv$`)

// ListReports returns the archived reports of an activation, oldest first.
// Reports are ordered by the generation date in their filename, then by name.
func ListReports(ctx context.Context, store StorageInterface, activationID string) ([]string, error) {
	names, err := store.List(ctx, ReportPath(activationID, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports of %s: %w", activationID, err)
	}

	sort.SliceStable(names, func(i, j int) bool {
		di, dj := dateOf(names[i]), dateOf(names[j])
		if di != dj {
			return di < dj
		}
		return names[i] < names[j]
	})
	return names, nil
}

func dateOf(name string) string {
	if m := reportDate.FindStringSubmatch(path.Base(name)); m != nil {
		return m[1]
	}
	return ""
}

// PruneReports deletes all but the newest keep reports of an activation and
// returns the deleted paths
func PruneReports(ctx context.Context, store StorageInterface, activationID string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	names, err := ListReports(ctx, store, activationID)
	if err != nil {
		return nil, err
	}
	if len(names) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, name := range names[:len(names)-keep] {
		if err := store.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("failed to prune %s: %w", name, err)
		}
		logrus.Infof("Pruned archived report %s", name)
		deleted = append(deleted, name)
	}
	return deleted, nil
}
