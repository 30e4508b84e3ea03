package storage

import (
	"encoding/json"
	"sort"

	"scraperengine/internal/engine"
)

// Pair is one flattened (section, key, value) row of a record's kv data.
// Array values produce one Pair per element with increasing Position;
// structured values (variant lists) are serialized to JSON in Value.
type Pair struct {
	Section  string
	Key      string
	Position int
	Value    string
}

// Flatten turns a record's kv map into a deterministic row list: sections
// and keys sorted lexically, array elements in accumulation order.
//
// Backends share this so the pair-table contents are identical across
// database kinds.
func Flatten(rec *engine.Record) []Pair {
	var pairs []Pair

	sections := make([]string, 0, len(rec.KV))
	for s := range rec.KV {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	for _, section := range sections {
		kv := rec.KV[section]
		keys := make([]string, 0, len(kv))
		for k := range kv {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			switch v := kv[key].(type) {
			case string:
				pairs = append(pairs, Pair{Section: section, Key: key, Value: v})
			case []string:
				for i, s := range v {
					pairs = append(pairs, Pair{Section: section, Key: key, Position: i, Value: s})
				}
			default:
				b, err := json.Marshal(v)
				if err != nil {
					continue
				}
				pairs = append(pairs, Pair{Section: section, Key: key, Value: string(b)})
			}
		}
	}
	return pairs
}

// MarshalStats renders a record's stats map as a stable JSON document for
// the header row.
func MarshalStats(rec *engine.Record) string {
	b, err := json.Marshal(rec.Stats)
	if err != nil {
		return "{}"
	}
	return string(b)
}
