package talna

import (
	"context"
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/dgraph-io/badger/v4"
)

// Query is an aggregation query builder: metric, group-by tag, filter
// expression, time range, and granularity, resolved by Run into Groups.
type Query struct {
	db     *Database
	metric string

	filterExpr string
	filter     Filter

	groupBy string

	start, end  int64
	granularity int64

	aggFunc AggFunc
}

// NewQuery creates a query builder for a metric. Defaults: no filter
// (matches every series ever written under metric), no group-by (single
// group ""), aggregator Avg.
func (d *Database) NewQuery(metric string) *Query {
	return &Query{db: d, metric: metric, aggFunc: AggAvg}
}

// Where sets the filter expression, e.g. "env:prod AND NOT host:h1".
func (q *Query) Where(expr string) (*Query, error) {
	f, err := ParseFilter(expr)
	if err != nil {
		return nil, err
	}
	q.filterExpr = expr
	q.filter = f
	return q, nil
}

// GroupBy sets the tag key results are grouped by. A series missing this
// tag is skipped.
func (q *Query) GroupBy(tagKey string) *Query {
	q.groupBy = tagKey
	return q
}

// TimeRange sets the inclusive query bounds, in nanoseconds since epoch.
func (q *Query) TimeRange(start, end int64) *Query {
	q.start = start
	q.end = end
	return q
}

// Granularity sets the bucket width in nanoseconds. Required: Run
// rejects a zero or negative granularity.
func (q *Query) Granularity(ns int64) *Query {
	q.granularity = ns
	return q
}

// Avg, Sum, Min, Max, and Count select the aggregation function.
func (q *Query) Avg() *Query   { q.aggFunc = AggAvg; return q }
func (q *Query) Sum() *Query   { q.aggFunc = AggSum; return q }
func (q *Query) Min() *Query   { q.aggFunc = AggMin; return q }
func (q *Query) Max() *Query   { q.aggFunc = AggMax; return q }
func (q *Query) Count() *Query { q.aggFunc = AggCount; return q }

// candidates resolves the query's filter (or the metric's full universe,
// if no filter was set) to a set of series ids.
func (q *Query) candidates() ([]SeriesID, error) {
	index := q.db.series.index

	var bm *roaring64.Bitmap
	var err error
	if q.filter == nil {
		bm, err = index.AllSeriesForMetric(q.metric)
	} else {
		bm, err = Eval(q.filter, index, q.metric)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]SeriesID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, SeriesID(it.Next()))
	}
	return ids, nil
}

// Run executes the query: resolve candidates, load each one's tagset for
// grouping, reverse-scan its samples within [start,end], bucket by
// floor((ts-start)/granularity), and aggregate per (group, bucket).
func (q *Query) Run(ctx context.Context) (Groups, error) {
	if q.granularity <= 0 {
		return nil, newError(KindInvalidName, "granularity must be positive")
	}

	ids, err := q.candidates()
	if err != nil {
		return nil, err
	}

	type groupState struct {
		buckets map[int64]*accumulator
	}
	groups := make(map[string]*groupState)

	err = q.db.badger.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			select {
			case <-ctx.Done():
				return ErrCancelled
			default:
			}

			groupKey, ok, err := q.resolveGroupKey(id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			gs, ok := groups[groupKey]
			if !ok {
				gs = &groupState{buckets: make(map[int64]*accumulator)}
				groups[groupKey] = gs
			}

			err = scanSeries(ctx, txn, id, TimeRange{Start: q.start, End: q.end}, func(p DataPoint) error {
				b := bucketIndex(p.Timestamp, q.start, q.granularity)
				acc, ok := gs.buckets[b]
				if !ok {
					acc = &accumulator{}
					gs.buckets[b] = acc
				}
				acc.add(p.Value)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make(Groups, len(groups))
	for groupKey, gs := range groups {
		result[groupKey] = materializeBuckets(gs.buckets, q.start, q.granularity, q.aggFunc)
	}
	return result, nil
}

// resolveGroupKey returns the group-by tag's value for id, and false if
// grouping is requested but the tag is absent (meaning: skip this
// series). When no group-by tag was set, every series belongs to the
// single group "".
func (q *Query) resolveGroupKey(id SeriesID) (string, bool, error) {
	if q.groupBy == "" {
		return "", true, nil
	}

	tags, err := q.db.series.LoadTagSet(id)
	if err != nil {
		return "", false, err
	}
	val, ok := tags.Get(q.groupBy)
	if !ok {
		return "", false, nil
	}
	return val, true, nil
}

func bucketIndex(ts, start, granularity int64) int64 {
	return (ts - start) / granularity
}

func materializeBuckets(buckets map[int64]*accumulator, start, granularity int64, fn AggFunc) []Bucket {
	result := make([]Bucket, 0, len(buckets))
	for b, acc := range buckets {
		result = append(result, Bucket{
			StartTS: start + b*granularity,
			Value:   acc.compute(fn),
			Count:   acc.count,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTS < result[j].StartTS })
	return result
}
