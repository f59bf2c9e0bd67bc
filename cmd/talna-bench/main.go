// Command talna-bench drives sustained ingestion and query load against a
// talna database, printing write throughput, peak heap, disk footprint and
// hot-range query latency.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"talna/pkg/talna"
)

func main() {
	path := flag.String("path", ".talna-bench", "database path")
	batchSize := flag.Int("batch", 50000, "batch size")
	totalPoints := flag.Int64("points", 1_000_000_000, "total points to write")
	flag.Parse()

	os.RemoveAll(*path)

	opts := talna.DefaultOptions(*path)
	db, err := talna.Open(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open db: %v\n", err)
		os.Exit(1)
	}

	r := rand.New(rand.NewSource(42))

	hosts := []string{"h-0", "h-1", "h-2", "h-3", "h-4", "h-5", "h-6", "h-7", "h-8", "h-9"}
	pointsPerHost := *totalPoints / int64(len(hosts))

	// Pre-resolve series so ingestion never pays the registry's
	// double-checked-locking path mid-run.
	seriesIDs := make([]talna.SeriesID, len(hosts))
	for i, host := range hosts {
		tags := talna.Tagset{
			{Key: "env", Value: "prod"},
			{Key: "host", Value: host},
			{Key: "service", Value: "db"},
		}
		tags.Sort()
		id, err := db.Series().ResolveOrCreate("cpu.total", tags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to resolve series for %s: %v\n", host, err)
			os.Exit(1)
		}
		seriesIDs[i] = id
	}

	var peakMem uint64
	updatePeakMem := func() {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		if m.HeapAlloc > peakMem {
			peakMem = m.HeapAlloc
		}
	}

	start := time.Now()
	var totalWritten int64

	printInterval := pointsPerHost / 10
	if printInterval < 1000 {
		printInterval = 1000
	}

	for hidx, host := range hosts {
		sid := seriesIDs[hidx]
		batch := db.NewBatchWriter()
		batchCount := 0

		for idx := int64(0); idx < pointsPerHost; idx++ {
			timestamp := int64(hidx)*pointsPerHost + idx
			value := r.Float64() * 100

			batch.WriteRaw(sid, value, timestamp)
			batchCount++
			totalWritten++

			if batchCount >= *batchSize {
				batch.Flush()
				batch = db.NewBatchWriter()
				batchCount = 0
			}

			if idx > 0 && idx%printInterval == 0 {
				elapsed := time.Since(start)
				rate := float64(totalWritten) / elapsed.Seconds()
				updatePeakMem()
				fmt.Printf("[%s] %d/%d - %.0f WPS - peak mem: %d MiB\n",
					host, idx, pointsPerHost, rate, peakMem/1024/1024)
			}
		}

		if batchCount > 0 {
			batch.Flush()
		}
	}

	elapsed := time.Since(start)
	rate := float64(totalWritten) / elapsed.Seconds()
	updatePeakMem()

	db.Close()

	var diskSize int64
	entries, _ := os.ReadDir(*path)
	for _, e := range entries {
		info, _ := e.Info()
		if info != nil {
			diskSize += info.Size()
		}
	}

	fmt.Println()
	fmt.Printf("ingested %d points in %.3fs\n", totalWritten, elapsed.Seconds())
	fmt.Printf("write speed: %.0f writes per second\n", rate)
	fmt.Printf("peak mem: %d MiB\n", peakMem/1024/1024)
	fmt.Printf("disk space: %d bytes (%d MiB, %.4f GiB)\n",
		diskSize,
		diskSize/1024/1024,
		float64(diskSize)/(1024*1024*1024),
	)

	reopenStart := time.Now()
	db2, err := talna.Open(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to reopen db: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reopened DB in %dms\n", time.Since(reopenStart).Milliseconds())

	lowerBound := totalWritten - 10000
	if lowerBound < 0 {
		lowerBound = 0
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		queryStart := time.Now()
		q, err := db2.NewQuery("cpu.total").Where("host:h-9 OR host:h-8")
		if err != nil {
			fmt.Fprintf(os.Stderr, "filter parse failed: %v\n", err)
			os.Exit(1)
		}
		q.TimeRange(lowerBound, 0).Granularity(totalWritten + 1).Count()
		groups, err := q.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
			os.Exit(1)
		}

		count := 0.0
		for _, buckets := range groups {
			for _, b := range buckets {
				count += b.Value
			}
		}
		fmt.Printf("query [%.0f latest data points] in %dms\n", count, time.Since(queryStart).Milliseconds())
	}

	db2.Close()
	os.RemoveAll(*path)
}
