package talna

import (
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Write validates metric and tags, resolves or creates the series, and
// appends one sample at the current wall-clock time.
func (d *Database) Write(metric string, value float64, tags map[string]string) error {
	return d.WriteAt(metric, value, tags, time.Now().UnixNano())
}

// WriteAt is Write with an explicit timestamp (nanoseconds since epoch).
func (d *Database) WriteAt(metric string, value float64, tags map[string]string, ts int64) error {
	return d.WriteAtWithTagset(metric, value, FromMap(tags), ts)
}

// WriteAtWithTagset writes a sample using a pre-built Tagset, avoiding a
// map allocation when the tagset is reused across many writes.
func (d *Database) WriteAtWithTagset(metric string, value float64, tags Tagset, ts int64) error {
	if err := validateMetric(metric); err != nil {
		return err
	}
	if err := validateTags(tags); err != nil {
		return err
	}

	id, err := d.series.ResolveOrCreate(metric, tags)
	if err != nil {
		return err
	}

	keyBuf := d.getDataKeyBuf()
	valueBuf := d.getDataValueBuf()
	defer d.putDataKeyBuf(keyBuf)
	defer d.putDataValueBuf(valueBuf)

	EncodeDataKey(*keyBuf, uint64(id), ts)
	EncodeValue(*valueBuf, value)

	err = d.badger.Update(func(txn *badger.Txn) error {
		return txn.Set(*keyBuf, *valueBuf)
	})
	if err != nil {
		return ErrStorage("write sample", err)
	}
	return nil
}

// BatchWriter accumulates samples and commits them in one atomic batch.
// New-series creation still goes through SeriesRegistry's own serialized
// commit; only sample rows are buffered here.
type BatchWriter struct {
	db    *Database
	batch *badger.WriteBatch
}

// NewBatchWriter creates a batch writer. Call Flush to commit, or Cancel
// to discard.
func (d *Database) NewBatchWriter() *BatchWriter {
	return &BatchWriter{db: d, batch: d.badger.NewWriteBatch()}
}

// Write adds a sample at the current time to the batch.
func (w *BatchWriter) Write(metric string, value float64, tags map[string]string) error {
	return w.WriteAt(metric, value, tags, time.Now().UnixNano())
}

// WriteAt adds a sample with an explicit timestamp to the batch.
func (w *BatchWriter) WriteAt(metric string, value float64, tags map[string]string, ts int64) error {
	return w.WriteAtWithTagset(metric, value, FromMap(tags), ts)
}

// WriteAtWithTagset adds a sample using a pre-built Tagset to the batch.
func (w *BatchWriter) WriteAtWithTagset(metric string, value float64, tags Tagset, ts int64) error {
	if err := validateMetric(metric); err != nil {
		return err
	}
	if err := validateTags(tags); err != nil {
		return err
	}

	id, err := w.db.series.ResolveOrCreate(metric, tags)
	if err != nil {
		return err
	}

	return w.WriteRaw(id, value, ts)
}

// WriteRaw adds a sample for an already-resolved series id, skipping
// registry lookup entirely (fastest path, used by bulk ingestion once
// series ids are known upfront).
func (w *BatchWriter) WriteRaw(seriesID SeriesID, value float64, ts int64) error {
	keyBuf := make([]byte, DataKeySize)
	valueBuf := make([]byte, ValueSize)

	EncodeDataKey(keyBuf, uint64(seriesID), ts)
	EncodeValue(valueBuf, value)

	if err := w.batch.Set(keyBuf, valueBuf); err != nil {
		return ErrStorage("batch write sample", err)
	}
	return nil
}

// Flush commits all pending writes atomically.
func (w *BatchWriter) Flush() error {
	if err := w.batch.Flush(); err != nil {
		return ErrStorage("flush batch", err)
	}
	return nil
}

// Cancel discards the batch without committing.
func (w *BatchWriter) Cancel() {
	w.batch.Cancel()
}
