package talna

import (
	"sync"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/dgraph-io/badger/v4"
)

// TagIndex is the read side of the inverted tag index: prefix scans
// over tag_index rows, memoized as roaring bitmaps per
// term. Rows themselves are written by SeriesRegistry.createSeries
// inside the same atomic batch as the series_map and tagsets rows;
// TagIndex only ever adds to an already-cached bitmap (never removes),
// since postings are append-only and a term once queried stays correct
// as new series are added to it.
type TagIndex struct {
	db    *Database
	cache sync.Map // term (string) -> *roaring64.Bitmap
}

func newTagIndex(db *Database) *TagIndex {
	return &TagIndex{db: db}
}

// addSeriesToCache adds seriesID to an already-cached bitmap for term,
// if one exists. A term that hasn't been queried yet has no cache entry;
// its first query will prefix-scan storage and pick up the new row
// naturally, so there's nothing to do here in that case.
func (idx *TagIndex) addSeriesToCache(term string, seriesID SeriesID) {
	if val, ok := idx.cache.Load(term); ok {
		val.(*roaring64.Bitmap).Add(uint64(seriesID))
	}
}

// Postings returns the set of series ids matching metric#tagKey=tagValue.
func (idx *TagIndex) Postings(metric, tagKey, tagValue string) (*roaring64.Bitmap, error) {
	return idx.bitmapFor(tagPostingTerm(metric, tagKey, tagValue))
}

// AllSeriesForMetric returns the set of all series ids that have ever
// been written under metric.
func (idx *TagIndex) AllSeriesForMetric(metric string) (*roaring64.Bitmap, error) {
	return idx.bitmapFor(metricPostingTerm(metric))
}

func (idx *TagIndex) bitmapFor(term string) (*roaring64.Bitmap, error) {
	if val, ok := idx.cache.Load(term); ok {
		return val.(*roaring64.Bitmap), nil
	}

	bm := roaring64.New()
	prefix := EncodeTagIndexPrefix(term)

	err := idx.db.badger.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			bm.Add(DecodeTagIndexSeriesID(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, ErrStorage("scan tag index", err)
	}

	actual, _ := idx.cache.LoadOrStore(term, bm)
	return actual.(*roaring64.Bitmap), nil
}

// Intersect returns the intersection of multiple posting-list bitmaps.
func Intersect(bitmaps ...*roaring64.Bitmap) *roaring64.Bitmap {
	if len(bitmaps) == 0 {
		return roaring64.New()
	}
	result := bitmaps[0].Clone()
	for _, bm := range bitmaps[1:] {
		result.And(bm)
	}
	return result
}

// Union returns the union of multiple posting-list bitmaps.
func Union(bitmaps ...*roaring64.Bitmap) *roaring64.Bitmap {
	result := roaring64.New()
	for _, bm := range bitmaps {
		result.Or(bm)
	}
	return result
}

// Difference returns a \ b.
func Difference(a, b *roaring64.Bitmap) *roaring64.Bitmap {
	result := a.Clone()
	result.AndNot(b)
	return result
}
