package talna

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// badgerLogAdapter routes badger's internal logging through a go-kit
// logger so callers get one consistent log sink for both talna's own
// messages and badger's compaction/value-log/GC chatter.
type badgerLogAdapter struct {
	logger log.Logger
}

func newBadgerLogAdapter(logger log.Logger) *badgerLogAdapter {
	return &badgerLogAdapter{logger: logger}
}

func (a *badgerLogAdapter) Errorf(format string, args ...interface{}) {
	level.Error(a.logger).Log("msg", fmt.Sprintf(format, args...), "component", "badger")
}

func (a *badgerLogAdapter) Warningf(format string, args ...interface{}) {
	level.Warn(a.logger).Log("msg", fmt.Sprintf(format, args...), "component", "badger")
}

func (a *badgerLogAdapter) Infof(format string, args ...interface{}) {
	level.Info(a.logger).Log("msg", fmt.Sprintf(format, args...), "component", "badger")
}

func (a *badgerLogAdapter) Debugf(format string, args ...interface{}) {
	level.Debug(a.logger).Log("msg", fmt.Sprintf(format, args...), "component", "badger")
}
