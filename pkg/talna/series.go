package talna

import (
	"encoding/binary"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-kit/log/level"
)

// SeriesID is a dense, sequential, permanent identifier for a series.
// Ids start at 0 and are never recycled.
type SeriesID uint64

// SeriesRegistry assigns and caches series ids, persists tagset metadata,
// and maintains the inverted tag index. New-series creation is
// serialized by mu; everything else (lookups) is lock-free against an
// immutable cache (entries are never invalidated once written).
type SeriesRegistry struct {
	db *Database

	mu      sync.Mutex // guards id allocation + series_map check-then-insert
	nextID  uint64
	idCache sync.Map // canonical series key (string) -> SeriesID

	index *TagIndex
}

func newSeriesRegistry(db *Database) (*SeriesRegistry, error) {
	r := &SeriesRegistry{db: db, index: newTagIndex(db)}

	if err := db.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaCounterKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			r.nextID = binary.BigEndian.Uint64(val)
			return nil
		})
	}); err != nil {
		return nil, ErrStorage("load series id counter", err)
	}

	return r, nil
}

// ResolveOrCreate returns the series id for (metric, tags), creating a
// new series and its index entries if this canonical key hasn't been
// seen before. tags is sorted in place.
func (r *SeriesRegistry) ResolveOrCreate(metric string, tags Tagset) (SeriesID, error) {
	key := canonicalSeriesKey(metric, tags)

	if cached, ok := r.idCache.Load(string(key)); ok {
		return cached.(SeriesID), nil
	}

	mapKey := EncodeSeriesMapKey(key)

	if id, ok, err := r.lookupSeriesMap(mapKey); err != nil {
		return 0, err
	} else if ok {
		r.idCache.Store(string(key), id)
		return id, nil
	}

	return r.createSeries(string(key), mapKey, metric, tags)
}

func (r *SeriesRegistry) lookupSeriesMap(mapKey []byte) (SeriesID, bool, error) {
	var id SeriesID
	found := false

	err := r.db.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get(mapKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			id = SeriesID(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	if err != nil {
		return 0, false, ErrStorage("lookup series map", err)
	}
	return id, found, nil
}

// createSeries serializes new-series allocation: re-check series_map
// inside the critical section (another writer may have won the race
// since the first lookup), then atomically batch-insert the series_map,
// tagsets, and tag_index rows plus the advanced id counter.
func (r *SeriesRegistry) createSeries(cacheKey string, mapKey []byte, metric string, tags Tagset) (SeriesID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok, err := r.lookupSeriesMap(mapKey); err != nil {
		return 0, err
	} else if ok {
		r.idCache.Store(cacheKey, id)
		return id, nil
	}

	id := SeriesID(r.nextID)

	err := r.db.badger.Update(func(txn *badger.Txn) error {
		idBuf := make([]byte, SeriesIDSize)
		binary.BigEndian.PutUint64(idBuf, uint64(id))

		if err := txn.Set(mapKey, idBuf); err != nil {
			return err
		}

		tagSetsKey := make([]byte, 1+SeriesIDSize)
		EncodeTagSetsKey(tagSetsKey, uint64(id))
		if err := txn.Set(tagSetsKey, canonicalTagSetBlob(tags)); err != nil {
			return err
		}

		if err := txn.Set(EncodeTagIndexKey(metricPostingTerm(metric), uint64(id)), nil); err != nil {
			return err
		}
		for _, t := range tags {
			term := tagPostingTerm(metric, t.Key, t.Value)
			if err := txn.Set(EncodeTagIndexKey(term, uint64(id)), nil); err != nil {
				return err
			}
		}

		counterBuf := make([]byte, SeriesIDSize)
		binary.BigEndian.PutUint64(counterBuf, r.nextID+1)
		return txn.Set(metaCounterKey, counterBuf)
	})
	if err != nil {
		return 0, ErrStorage("create series", err)
	}

	r.nextID++
	r.idCache.Store(cacheKey, id)

	r.index.addSeriesToCache(metricPostingTerm(metric), id)
	for _, t := range tags {
		r.index.addSeriesToCache(tagPostingTerm(metric, t.Key, t.Value), id)
	}

	level.Debug(r.db.logger).Log("msg", "created series", "series_id", uint64(id), "metric", metric)

	return id, nil
}

// LoadTagSet returns the tagset stored for a series id.
func (r *SeriesRegistry) LoadTagSet(id SeriesID) (Tagset, error) {
	keyBuf := make([]byte, 1+SeriesIDSize)
	EncodeTagSetsKey(keyBuf, uint64(id))

	var tags Tagset
	err := r.db.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyBuf)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tags = parseTagSetBlob(val)
			return nil
		})
	})
	if err != nil {
		return nil, ErrStorage("load tagset", err)
	}
	return tags, nil
}
