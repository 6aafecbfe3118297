// Package cache provides disk, memory, and Redis implementations of the
// snotel.Cache contract.
package cache

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"

	"github.com/eruebush/snotel-go/internal/snotel"
)

// encodeEntry serializes an entry as snappy-compressed JSON. The same framing
// is used by the disk and Redis backends so entries stay portable between
// them.
func encodeEntry(entry snotel.CacheEntry) ([]byte, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

func decodeEntry(data []byte) (snotel.CacheEntry, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return snotel.CacheEntry{}, fmt.Errorf("decompress cache entry: %w", err)
	}
	var entry snotel.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return snotel.CacheEntry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry, nil
}
