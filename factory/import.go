package factory

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/warp/judgment-interest/engine"
)

// ImportFile parses a rate-table document and saves every jurisdiction in
// it, in name order. The file is fully validated before anything is
// written. Records come back in the same order.
func (f *RateTableFactory) ImportFile(ctx context.Context, store engine.RateStore, path string) ([]engine.ImportRecord, error) {
	schedules, err := f.ParseFileSchedules(path)
	if err != nil {
		return nil, err
	}

	names := make([]engine.Jurisdiction, 0, len(schedules))
	for j := range schedules {
		names = append(names, j)
	}
	sort.Slice(names, func(a, b int) bool { return names[a] < names[b] })

	source := filepath.Base(path)
	records := make([]engine.ImportRecord, 0, len(names))
	for _, j := range names {
		rec, err := store.SaveSchedule(ctx, j, schedules[j], source)
		if err != nil {
			return records, fmt.Errorf("failed to save %s: %w", j, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
