// Command talnaql is a line-oriented REPL for querying a talna database.
// Each line is one query in the form:
//
//	metric{filter} | agg by(tag) [start,end) bucket=duration
//
// filter and "by(tag)" are optional. The [start,end) brackets are required,
// but either bound may be left empty to mean "no bound". agg is one of
// avg, sum, min, max, count. Durations accept suffixes ns, us, ms, s, m,
// h, d, w (see talna.ParseDuration). A bare "now" is accepted as start or
// end and resolves to the wall-clock time the query runs.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"talna/pkg/talna"
)

var lineRE = regexp.MustCompile(`^\s*([a-zA-Z0-9_.]+)(?:\{([^}]*)\})?\s*\|\s*(avg|sum|min|max|count)(?:\s+by\(([a-zA-Z0-9_.]+)\))?\s*\[([^,]*),([^)\]]*)\)\s*bucket=(\S+)\s*$`)

func main() {
	path := flag.String("path", ".talnaql", "database path")
	flag.Parse()

	opts := talna.DefaultOptions(*path)
	db, err := talna.Open(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("talnaql - enter queries, blank line or Ctrl-D to exit")
	fmt.Println(`  syntax: metric{filter} | agg by(tag) [start,end) bucket=duration`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		if err := runLine(db, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func runLine(db *talna.Database, line string) error {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("could not parse query, expected: metric{filter} | agg by(tag) [start,end) bucket=duration")
	}

	metric := m[1]
	filter := m[2]
	agg := m[3]
	groupBy := m[4]
	startStr := strings.TrimSpace(m[5])
	endStr := strings.TrimSpace(m[6])
	bucketStr := m[7]

	start, err := parseTimeBound(startStr)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := parseTimeBound(endStr)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	bucket, err := talna.ParseDuration(bucketStr)
	if err != nil {
		return fmt.Errorf("bucket: %w", err)
	}

	q := db.NewQuery(metric)
	if filter != "" {
		q, err = q.Where(filter)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
	}
	if groupBy != "" {
		q.GroupBy(groupBy)
	}
	q.TimeRange(start, end).Granularity(bucket)

	switch agg {
	case "avg":
		q.Avg()
	case "sum":
		q.Sum()
	case "min":
		q.Min()
	case "max":
		q.Max()
	case "count":
		q.Count()
	}

	groups, err := q.Run(context.Background())
	if err != nil {
		return err
	}
	printGroups(groups)
	return nil
}

// parseTimeBound accepts "now", a bare integer nanosecond timestamp, or a
// "now-<duration>" / "now+<duration>" expression; "" resolves to 0 ("no
// bound").
func parseTimeBound(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if s == "now" {
		return time.Now().UnixNano(), nil
	}
	if strings.HasPrefix(s, "now-") || strings.HasPrefix(s, "now+") {
		sign := int64(1)
		if s[3] == '-' {
			sign = -1
		}
		d, err := talna.ParseDuration(s[4:])
		if err != nil {
			return 0, err
		}
		return time.Now().UnixNano() + sign*d, nil
	}

	var ts int64
	if _, err := fmt.Sscanf(s, "%d", &ts); err != nil {
		return 0, fmt.Errorf("expected integer timestamp, \"now\", or now±duration: %q", s)
	}
	return ts, nil
}

func printGroups(groups talna.Groups) {
	if len(groups) == 0 {
		fmt.Println("(no results)")
		return
	}
	for group, buckets := range groups {
		label := group
		if label == "" {
			label = "(ungrouped)"
		}
		fmt.Printf("%s:\n", label)
		for _, b := range buckets {
			fmt.Printf("  t=%d value=%g count=%d\n", b.StartTS, b.Value, b.Count)
		}
	}
}
