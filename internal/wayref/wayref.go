// Package wayref loads the reference way dataset used to seed missing
// counters at startup.
package wayref

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jacentio/waytally/store"
)

// entry mirrors one record of the reference file. Identifier aliases
// match the ones the API accepts.
type entry struct {
	WayID *int64 `json:"wayId"`
	ID    *int64 `json:"id"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Load reads a JSON array of reference ways and returns the
// (wayId, label) pairs it could extract. Records without a usable
// numeric identifier are dropped; duplicate identifiers keep the first
// record. Callers treat a returned error as "no reference data", not as
// a fatal condition.
func Load(path string) ([]store.SeedWay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference dataset: %w", err)
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse reference dataset %s: %w", path, err)
	}

	seen := make(map[int64]struct{}, len(entries))
	ways := make([]store.SeedWay, 0, len(entries))
	for _, e := range entries {
		id, ok := wayID(e)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ways = append(ways, store.SeedWay{WayID: id, Label: e.Label})
	}
	return ways, nil
}

// wayID extracts the numeric identifier: wayId, then id, then the
// "way-<n>" convention of key.
func wayID(e entry) (int64, bool) {
	if e.WayID != nil {
		return *e.WayID, true
	}
	if e.ID != nil {
		return *e.ID, true
	}
	if rest, ok := strings.CutPrefix(e.Key, "way-"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}
