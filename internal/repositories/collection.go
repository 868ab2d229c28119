package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"stockroom/internal/common"
	"stockroom/internal/store"
)

// readAll decodes a whole collection. The persistence layer hands back raw
// JSON arrays; every repository works on the decoded slice and writes the
// whole slice back.
func readAll[T any](ctx context.Context, st store.Store, name string) ([]T, error) {
	data, err := st.ReadCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", common.ErrPersistence, name, err)
	}
	return records, nil
}

// writeAll replaces a whole collection. Arrays are pretty-printed so the
// stored files stay human-readable.
func writeAll[T any](ctx context.Context, st store.Store, name string, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", common.ErrPersistence, name, err)
	}
	return st.WriteCollection(ctx, name, data)
}
