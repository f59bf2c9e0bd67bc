package talna

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

// DataPoint is a single (timestamp, value) sample.
type DataPoint struct {
	Timestamp int64
	Value     float64
}

// TimeRange bounds a scan. Start and End are inclusive nanosecond
// timestamps; 0 is a sentinel for "no bound" on either side.
type TimeRange struct {
	Start int64
	End   int64
}

// scanSeries reverse-scans one series' samples within [r.Start, r.End]
// (inclusive), newest first, invoking fn for each point. It stops early,
// returning ErrCancelled, if ctx is done between samples.
func scanSeries(ctx context.Context, txn *badger.Txn, seriesID SeriesID, r TimeRange, fn func(DataPoint) error) error {
	prefix := make([]byte, 1+SeriesIDSize)
	DataKeyPrefix(prefix, uint64(seriesID))

	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = prefix

	it := txn.NewIterator(iterOpts)
	defer it.Close()

	seekKey := make([]byte, DataKeySize)
	if r.End > 0 {
		EncodeDataKey(seekKey, uint64(seriesID), r.End)
	} else {
		copy(seekKey, prefix)
	}

	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		select {
		case <-ctx.Done():
			return ErrCancelled
		default:
		}

		item := it.Item()
		_, ts := DecodeDataKey(item.KeyCopy(nil))

		if r.End > 0 && ts > r.End {
			continue
		}
		if r.Start > 0 && ts < r.Start {
			break
		}

		var value float64
		if err := item.Value(func(val []byte) error {
			value = DecodeValue(val)
			return nil
		}); err != nil {
			return ErrStorage("read sample", err)
		}

		if err := fn(DataPoint{Timestamp: ts, Value: value}); err != nil {
			return err
		}
	}
	return nil
}

// Range returns every sample for seriesID within r, newest first.
func (d *Database) Range(ctx context.Context, seriesID SeriesID, r TimeRange) ([]DataPoint, error) {
	var points []DataPoint

	err := d.badger.View(func(txn *badger.Txn) error {
		return scanSeries(ctx, txn, seriesID, r, func(p DataPoint) error {
			points = append(points, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}
