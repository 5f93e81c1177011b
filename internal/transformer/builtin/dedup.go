package builtin

import (
	"encoding/binary"
	"strings"

	"github.com/zeebo/xxh3"

	"csvmerge/internal/config"
	"csvmerge/internal/records"
)

// DeDup collapses rows sharing a key.
//
// The key is the tuple of values for Keys, or every column of the row when
// Keys is empty. Keys name source columns and are resolved through Mapping
// (renamed name first, then the original). Values are case-folded unless
// CaseSensitive is set.
//
// Output holds one row per distinct key in first-seen order. With KeepFirst
// each slot keeps the first row for its key. With KeepLast the slot keeps its
// first-seen position but holds the content of the last row for that key.
type DeDup struct {
	Keys          []string
	Mapping       map[string]string
	Policy        config.KeepPolicy
	CaseSensitive bool
}

// Apply executes the de-duplication.
func (d DeDup) Apply(in []records.Row) []records.Row {
	if len(in) < 2 {
		return in
	}
	keepLast := d.Policy == config.KeepLast

	out := make([]records.Row, 0, len(in))
	// keys[i] is the encoded key of out[i]; buckets index slots by key hash.
	keys := make([]string, 0, len(in))
	buckets := make(map[xxh3.Uint128][]int, len(in))

	var buf []byte
	for _, r := range in {
		buf = d.appendKey(buf[:0], r)
		h := xxh3.Hash128(buf)

		slot := -1
		for _, s := range buckets[h] {
			if keys[s] == string(buf) {
				slot = s
				break
			}
		}
		if slot < 0 {
			buckets[h] = append(buckets[h], len(out))
			keys = append(keys, string(buf))
			out = append(out, r)
			continue
		}
		if keepLast {
			out[slot] = r
		}
	}
	return out
}

// appendKey encodes the key tuple as length-prefixed parts so that no two
// distinct tuples share an encoding.
func (d DeDup) appendKey(dst []byte, r records.Row) []byte {
	part := func(v string) {
		if !d.CaseSensitive {
			v = strings.ToLower(v)
		}
		dst = binary.AppendUvarint(dst, uint64(len(v)))
		dst = append(dst, v...)
	}
	if len(d.Keys) == 0 {
		if h := r.Header(); h != nil {
			for _, name := range h.Names() {
				part(r.Value(name))
			}
		}
		return dst
	}
	for _, k := range d.Keys {
		part(lookup(r, d.Mapping, k))
	}
	return dst
}
