package talna

import (
	"encoding/binary"
	"math"
)

// Key prefixes for each logical partition, realized as single-byte
// prefixes inside one badger keyspace.
const (
	PrefixSeries    byte = 'd' // series: series_id|negated_ts -> value
	PrefixSeriesMap byte = 'm' // series_map: canonical series key -> series_id
	PrefixTagSets   byte = 't' // tagsets: series_id -> canonical tagset blob
	PrefixTagIndex  byte = 'i' // tag_index: metric#key=value#series_id -> empty
	PrefixMeta      byte = 'x' // meta: singleton counters and encoding flags
)

// Key sizes.
const (
	SeriesIDSize  = 8                                // uint64
	TimestampSize = 8                                // int64 nanoseconds
	ValueSize     = 8                                // float64
	DataKeySize   = 1 + SeriesIDSize + TimestampSize // prefix + series_id + timestamp
)

// EncodeDataKey encodes a sample key into buf.
// Format: [PrefixSeries][series_id BE][negated_timestamp BE]
//
// The timestamp is bitwise-negated so that ascending (forward) iteration
// over a series' key range yields samples newest-first.
//
// buf must be at least DataKeySize bytes. Returns the number of bytes
// written.
func EncodeDataKey(buf []byte, seriesID uint64, ts int64) int {
	buf[0] = PrefixSeries
	binary.BigEndian.PutUint64(buf[1:9], seriesID)
	binary.BigEndian.PutUint64(buf[9:17], uint64(^ts))
	return DataKeySize
}

// DecodeDataKey extracts the series id and timestamp from an encoded
// sample key.
func DecodeDataKey(buf []byte) (seriesID uint64, ts int64) {
	seriesID = binary.BigEndian.Uint64(buf[1:9])
	negated := binary.BigEndian.Uint64(buf[9:17])
	return seriesID, int64(^negated)
}

// DataKeyPrefix writes the series-scoped prefix (no timestamp) into buf
// and returns the number of bytes written. Used for prefix/range scans
// over one series' samples.
func DataKeyPrefix(buf []byte, seriesID uint64) int {
	buf[0] = PrefixSeries
	binary.BigEndian.PutUint64(buf[1:9], seriesID)
	return 1 + SeriesIDSize
}

// EncodeValue encodes a float64 sample value into buf.
// buf must be at least ValueSize bytes.
func EncodeValue(buf []byte, v float64) int {
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return ValueSize
}

// DecodeValue decodes a float64 sample value from buf.
func DecodeValue(buf []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(buf))
}

// EncodeSeriesMapKey encodes a series_map key: [PrefixSeriesMap][canonical series key].
func EncodeSeriesMapKey(canonicalKey []byte) []byte {
	buf := make([]byte, 1+len(canonicalKey))
	buf[0] = PrefixSeriesMap
	copy(buf[1:], canonicalKey)
	return buf
}

// EncodeTagSetsKey encodes a tagsets key: [PrefixTagSets][series_id BE].
func EncodeTagSetsKey(buf []byte, seriesID uint64) int {
	buf[0] = PrefixTagSets
	binary.BigEndian.PutUint64(buf[1:9], seriesID)
	return 1 + SeriesIDSize
}

// DecodeTagSetsSeriesID extracts the series id from a tagsets key.
func DecodeTagSetsSeriesID(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf[1:9])
}

// EncodeTagIndexKey encodes an inverted-index key:
// [PrefixTagIndex]["metric#tag_key=tag_value#"][series_id BE]
func EncodeTagIndexKey(term string, seriesID uint64) []byte {
	buf := make([]byte, 1+len(term)+SeriesIDSize)
	buf[0] = PrefixTagIndex
	n := 1 + copy(buf[1:], term)
	binary.BigEndian.PutUint64(buf[n:], seriesID)
	return buf
}

// EncodeTagIndexPrefix encodes just the prefix portion of a tag_index key
// (the term, without a trailing series id), for prefix scans.
func EncodeTagIndexPrefix(term string) []byte {
	buf := make([]byte, 1+len(term))
	buf[0] = PrefixTagIndex
	copy(buf[1:], term)
	return buf
}

// DecodeTagIndexSeriesID extracts the trailing series id from a tag_index
// key found during a prefix scan.
func DecodeTagIndexSeriesID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-SeriesIDSize:])
}

// metricPostingTerm is the inverted-index term for a metric's presence
// posting: every series written under metric is a member, regardless
// of tags.
func metricPostingTerm(metric string) string {
	return metric + "#"
}

// tagPostingTerm is the inverted-index term for one metric#key=value posting.
func tagPostingTerm(metric, key, value string) string {
	return metric + "#" + key + "=" + value + "#"
}

// metaCounterKey is the singleton key holding the next series id.
var metaCounterKey = []byte{PrefixMeta, 'c'}

// metaValueWidthKey is the singleton key holding the persisted value width.
var metaValueWidthKey = []byte{PrefixMeta, 'w'}
