package talna

import (
	"math"
	"testing"
)

func TestAccumulator(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		fn      AggFunc
		want    float64
		wantCnt int
	}{
		{"avg", []float64{10, 20, 30, 40}, AggAvg, 25, 4},
		{"sum", []float64{10, 20, 30, 40}, AggSum, 100, 4},
		{"min", []float64{10, 20, 30, 40}, AggMin, 10, 4},
		{"max", []float64{10, 20, 30, 40}, AggMax, 40, 4},
		{"count", []float64{10, 20, 30, 40}, AggCount, 4, 4},
		{"single value avg", []float64{25}, AggAvg, 25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &accumulator{}
			for _, v := range tt.values {
				acc.add(v)
			}

			if got := acc.compute(tt.fn); got != tt.want {
				t.Errorf("compute(%v) = %f, want %f", tt.fn, got, tt.want)
			}
			if acc.count != tt.wantCnt {
				t.Errorf("count = %d, want %d", acc.count, tt.wantCnt)
			}
		})
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	acc := &accumulator{}
	if got := acc.compute(AggAvg); got != 0 {
		t.Errorf("avg of empty accumulator = %f, want 0", got)
	}
}

func TestAccumulatorNaNSkippedForMinMax(t *testing.T) {
	acc := &accumulator{}
	acc.add(10)
	acc.add(math.NaN())
	acc.add(20)

	if acc.compute(AggMin) != 10 {
		t.Errorf("min should skip NaN, got %f", acc.compute(AggMin))
	}
	if acc.compute(AggMax) != 20 {
		t.Errorf("max should skip NaN, got %f", acc.compute(AggMax))
	}
	if !math.IsNaN(acc.compute(AggSum)) {
		t.Error("sum should propagate NaN")
	}
	if !math.IsNaN(acc.compute(AggAvg)) {
		t.Error("avg should propagate NaN")
	}
	if acc.compute(AggCount) != 3 {
		t.Errorf("count should include NaN sample, got %f", acc.compute(AggCount))
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		ts, start, granularity int64
		want                   int64
	}{
		{1000, 0, 2000, 0},
		{2500, 0, 2000, 1},
		{2500, 500, 2000, 1},
		{4000, 0, 2000, 2},
	}

	for _, tt := range tests {
		if got := bucketIndex(tt.ts, tt.start, tt.granularity); got != tt.want {
			t.Errorf("bucketIndex(%d,%d,%d) = %d, want %d", tt.ts, tt.start, tt.granularity, got, tt.want)
		}
	}
}

func TestMaterializeBucketsSortedAscending(t *testing.T) {
	buckets := map[int64]*accumulator{
		2: {sum: 60, count: 1, min: 60, max: 60, minMaxSet: true},
		0: {sum: 20, count: 1, min: 20, max: 20, minMaxSet: true},
		1: {sum: 40, count: 1, min: 40, max: 40, minMaxSet: true},
	}

	result := materializeBuckets(buckets, 1000, 2000, AggSum)

	if len(result) != 3 {
		t.Fatalf("got %d buckets, want 3", len(result))
	}
	for i := 1; i < len(result); i++ {
		if result[i].StartTS <= result[i-1].StartTS {
			t.Errorf("buckets not sorted ascending: %v", result)
		}
	}
	if result[0].StartTS != 1000 || result[0].Value != 20 {
		t.Errorf("bucket 0 = %+v, want StartTS=1000 Value=20", result[0])
	}
}
