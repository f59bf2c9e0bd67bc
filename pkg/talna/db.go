package talna

import (
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// valueWidthFloat64 is the only value width talna ever writes to the
// meta row.
const valueWidthFloat64 = 8

// Database is the embeddable tagged time-series store: a Badger
// keyspace partitioned by single-byte prefixes (series, series_map,
// tagsets, tag_index, meta), a series registry that hands out dense
// sequential ids, and an inverted tag index over postings.
type Database struct {
	badger *badger.DB
	path   string
	closed bool
	mu     sync.RWMutex

	series *SeriesRegistry
	logger log.Logger

	dataKeyPool   sync.Pool
	dataValuePool sync.Pool
}

// Options configures a Database instance.
type Options struct {
	// Path is the directory where database files are stored. Ignored
	// when InMemory is true.
	Path string

	// InMemory, if true, runs Badger in memory-only mode (no
	// persistence). Useful for tests.
	InMemory bool

	// SyncWrites, if true, fsyncs every commit. Slower, safer. Default
	// false (async writes, relying on Badger's WAL).
	SyncWrites bool

	// CacheMiB sizes Badger's block cache. 0 selects Badger's default.
	CacheMiB int64

	// HighPrecision is accepted for forward compatibility. talna fixes
	// value width to float64 regardless of this flag; see
	// EncodingMismatch.
	HighPrecision bool

	// Logger receives structured logs for this database, including
	// Badger's own internal logging via an adapter. If nil, a no-op
	// logger is used.
	Logger log.Logger
}

// DefaultOptions returns Options with non-zero defaults filled in.
func DefaultOptions(path string) Options {
	return Options{
		Path:     path,
		CacheMiB: 64,
		Logger:   log.NewNopLogger(),
	}
}

// Open creates or opens a Database at the given path.
func Open(opts Options) (*Database, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}

	badgerOpts := badger.DefaultOptions(opts.Path)

	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	badgerOpts = badgerOpts.
		WithSyncWrites(opts.SyncWrites).
		WithLogger(&badgerLogAdapter{logger: opts.Logger}).
		WithNumMemtables(4).
		WithValueLogFileSize(256 << 20).
		WithCompression(options.Snappy)

	if opts.CacheMiB > 0 {
		badgerOpts = badgerOpts.WithBlockCacheSize(opts.CacheMiB << 20)
	}

	bdb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, ErrStorage("open database", err)
	}

	d := &Database{
		badger: bdb,
		path:   opts.Path,
		logger: opts.Logger,
		dataKeyPool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, DataKeySize)
				return &buf
			},
		},
		dataValuePool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, ValueSize)
				return &buf
			},
		},
	}

	if err := d.checkOrWriteValueWidth(); err != nil {
		bdb.Close()
		return nil, err
	}

	series, err := newSeriesRegistry(d)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	d.series = series

	level.Info(d.logger).Log("msg", "database opened", "path", opts.Path, "in_memory", opts.InMemory)
	return d, nil
}

// checkOrWriteValueWidth persists the value width on first open and
// rejects reopening a database written with a different width.
func (d *Database) checkOrWriteValueWidth() error {
	return d.badger.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(metaValueWidthKey)
		if err == badger.ErrKeyNotFound {
			return txn.Set(metaValueWidthKey, []byte{valueWidthFloat64})
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 1 || val[0] != valueWidthFloat64 {
				return ErrEncodingMismatch("stored value width does not match float64")
			}
			return nil
		})
	})
}

// Close flushes and closes the database, releasing all resources.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	level.Info(d.logger).Log("msg", "database closing", "path", d.path)
	if err := d.badger.Close(); err != nil {
		return ErrStorage("close database", err)
	}
	return nil
}

// Flush runs Badger's value-log garbage collection once, reclaiming
// space from overwritten/dropped entries.
func (d *Database) Flush() error {
	err := d.badger.RunValueLogGC(0.5)
	if err != nil && err != badger.ErrNoRewrite {
		return ErrStorage("flush", err)
	}
	return nil
}

// Path returns the filesystem path of the database ("" when InMemory).
func (d *Database) Path() string {
	return d.path
}

// Series returns the series registry, for callers that need direct
// id resolution or tagset lookup without writing a sample.
func (d *Database) Series() *SeriesRegistry {
	return d.series
}

func (d *Database) getDataKeyBuf() *[]byte {
	return d.dataKeyPool.Get().(*[]byte)
}

func (d *Database) putDataKeyBuf(buf *[]byte) {
	d.dataKeyPool.Put(buf)
}

func (d *Database) getDataValueBuf() *[]byte {
	return d.dataValuePool.Get().(*[]byte)
}

func (d *Database) putDataValueBuf(buf *[]byte) {
	d.dataValuePool.Put(buf)
}
