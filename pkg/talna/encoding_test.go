package talna

import (
	"math"
	"testing"
)

func TestEncodeDecodeDataKey(t *testing.T) {
	tests := []struct {
		name      string
		seriesID  uint64
		timestamp int64
	}{
		{"zero values", 0, 0},
		{"typical values", 12345, 1703635200000000000},
		{"max series ID", math.MaxUint64, 1000},
		{"negative timestamp", 100, -1000},
		{"max timestamp", 42, math.MaxInt64},
	}

	buf := make([]byte, DataKeySize)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := EncodeDataKey(buf, tt.seriesID, tt.timestamp)
			if n != DataKeySize {
				t.Errorf("EncodeDataKey returned %d, want %d", n, DataKeySize)
			}

			gotSeriesID, gotTimestamp := DecodeDataKey(buf)
			if gotSeriesID != tt.seriesID {
				t.Errorf("seriesID = %d, want %d", gotSeriesID, tt.seriesID)
			}
			if gotTimestamp != tt.timestamp {
				t.Errorf("timestamp = %d, want %d", gotTimestamp, tt.timestamp)
			}
		})
	}
}

func TestDataKeyOrdering(t *testing.T) {
	buf1 := make([]byte, DataKeySize)
	buf2 := make([]byte, DataKeySize)

	seriesID := uint64(100)
	olderTS := int64(1000)
	newerTS := int64(2000)

	EncodeDataKey(buf1, seriesID, newerTS)
	EncodeDataKey(buf2, seriesID, olderTS)

	for i := 0; i < DataKeySize; i++ {
		if buf1[i] < buf2[i] {
			return
		}
		if buf1[i] > buf2[i] {
			t.Errorf("newer timestamp should sort before older timestamp")
			return
		}
	}
	t.Errorf("keys are equal, but timestamps differ")
}

func TestEncodeDecodeValue(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"zero", 0.0},
		{"positive", 42.5},
		{"negative", -123.456},
		{"very small", 1e-100},
		{"very large", 1e100},
		{"infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	buf := make([]byte, ValueSize)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := EncodeValue(buf, tt.value)
			if n != ValueSize {
				t.Errorf("EncodeValue returned %d, want %d", n, ValueSize)
			}

			got := DecodeValue(buf)
			if got != tt.value {
				t.Errorf("value = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestDataKeyPrefix(t *testing.T) {
	seriesID := uint64(0xDEADBEEF12345678)
	prefix := make([]byte, 1+SeriesIDSize)
	n := DataKeyPrefix(prefix, seriesID)

	if n != 1+SeriesIDSize {
		t.Errorf("DataKeyPrefix returned %d, want %d", n, 1+SeriesIDSize)
	}
	if prefix[0] != PrefixSeries {
		t.Errorf("prefix = %c, want %c", prefix[0], PrefixSeries)
	}

	full := make([]byte, DataKeySize)
	EncodeDataKey(full, seriesID, 999)
	for i := range prefix {
		if full[i] != prefix[i] {
			t.Errorf("byte %d mismatch: got %x, want %x", i, full[i], prefix[i])
		}
	}
}

func TestEncodeSeriesMapKey(t *testing.T) {
	canonical := []byte("cpu.total#env=prod")
	key := EncodeSeriesMapKey(canonical)

	if key[0] != PrefixSeriesMap {
		t.Errorf("prefix = %c, want %c", key[0], PrefixSeriesMap)
	}
	if string(key[1:]) != string(canonical) {
		t.Errorf("body = %q, want %q", key[1:], canonical)
	}
}

func TestEncodeDecodeTagSetsKey(t *testing.T) {
	buf := make([]byte, 1+SeriesIDSize)
	seriesID := uint64(42)

	n := EncodeTagSetsKey(buf, seriesID)
	if n != 1+SeriesIDSize {
		t.Errorf("EncodeTagSetsKey returned %d, want %d", n, 1+SeriesIDSize)
	}
	if buf[0] != PrefixTagSets {
		t.Errorf("prefix = %c, want %c", buf[0], PrefixTagSets)
	}
	if got := DecodeTagSetsSeriesID(buf); got != seriesID {
		t.Errorf("seriesID = %d, want %d", got, seriesID)
	}
}

func TestEncodeTagIndexKeyAndPrefix(t *testing.T) {
	term := tagPostingTerm("cpu.total", "env", "prod")
	seriesID := uint64(7)

	key := EncodeTagIndexKey(term, seriesID)
	if key[0] != PrefixTagIndex {
		t.Errorf("prefix = %c, want %c", key[0], PrefixTagIndex)
	}
	if got := DecodeTagIndexSeriesID(key); got != seriesID {
		t.Errorf("seriesID = %d, want %d", got, seriesID)
	}

	prefix := EncodeTagIndexPrefix(term)
	if len(prefix) >= len(key) {
		t.Fatalf("prefix should be shorter than full key")
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			t.Errorf("byte %d mismatch: got %x, want %x", i, key[i], prefix[i])
		}
	}
}

func TestPostingTerms(t *testing.T) {
	if got, want := metricPostingTerm("cpu.total"), "cpu.total#"; got != want {
		t.Errorf("metricPostingTerm = %q, want %q", got, want)
	}
	if got, want := tagPostingTerm("cpu.total", "env", "prod"), "cpu.total#env=prod#"; got != want {
		t.Errorf("tagPostingTerm = %q, want %q", got, want)
	}
}

func BenchmarkEncodeDataKey(b *testing.B) {
	buf := make([]byte, DataKeySize)
	seriesID := uint64(12345)
	timestamp := int64(1703635200000000000)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		EncodeDataKey(buf, seriesID, timestamp)
	}
}

func BenchmarkDecodeDataKey(b *testing.B) {
	buf := make([]byte, DataKeySize)
	EncodeDataKey(buf, 12345, 1703635200000000000)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		DecodeDataKey(buf)
	}
}

func BenchmarkEncodeValue(b *testing.B) {
	buf := make([]byte, ValueSize)
	value := 42.5

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		EncodeValue(buf, value)
	}
}
