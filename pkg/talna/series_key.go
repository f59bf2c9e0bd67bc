package talna

import "bytes"

// canonicalSeriesKey serializes (metric, tags) into the canonical byte
// string that defines series identity: tags are sorted ascending by key,
// then joined as "key=value" pairs separated by ';', and the whole
// tagset is appended to the metric name behind a '#'.
//
// tags is sorted in place. Callers must have already validated the
// tagset for duplicate keys.
func canonicalSeriesKey(metric string, tags Tagset) []byte {
	tags.Sort()

	size := len(metric) + 1
	for i, t := range tags {
		if i > 0 {
			size++ // ';'
		}
		size += len(t.Key) + 1 + len(t.Value) // key '=' value
	}

	buf := make([]byte, 0, size)
	buf = append(buf, metric...)
	buf = append(buf, '#')
	for i, t := range tags {
		if i > 0 {
			buf = append(buf, ';')
		}
		buf = append(buf, t.Key...)
		buf = append(buf, '=')
		buf = append(buf, t.Value...)
	}
	return buf
}

// canonicalTagSetBlob serializes just the sorted tagset portion (no
// metric), used as the persisted tagsets-partition value so it can be
// parsed back into a Tagset by SeriesRegistry.LoadTagSet.
func canonicalTagSetBlob(tags Tagset) []byte {
	tags.Sort()

	size := 0
	for i, t := range tags {
		if i > 0 {
			size++
		}
		size += len(t.Key) + 1 + len(t.Value)
	}

	buf := make([]byte, 0, size)
	for i, t := range tags {
		if i > 0 {
			buf = append(buf, ';')
		}
		buf = append(buf, t.Key...)
		buf = append(buf, '=')
		buf = append(buf, t.Value...)
	}
	return buf
}

// parseTagSetBlob is the inverse of canonicalTagSetBlob.
func parseTagSetBlob(blob []byte) Tagset {
	if len(blob) == 0 {
		return nil
	}
	var tags Tagset
	start := 0
	for i := 0; i <= len(blob); i++ {
		if i == len(blob) || blob[i] == ';' {
			pair := blob[start:i]
			if eq := bytes.IndexByte(pair, '='); eq >= 0 {
				tags = append(tags, Tag{
					Key:   string(pair[:eq]),
					Value: string(pair[eq+1:]),
				})
			}
			start = i + 1
		}
	}
	return tags
}
