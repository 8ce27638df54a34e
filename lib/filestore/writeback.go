package filestore

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"sync"
	"time"
)

// DefaultWriteInterval is the debounce interval used if Options.WriteInterval is not set
const DefaultWriteInterval = 60 * time.Second

// writeBack debounces the writes of a backing file. Every change marks the
// store dirty; the first change of a window arms a single timer and all
// changes until it fires are written together.
//
// Lock order: fileMu is taken before the owner's index lock (inside snapshot),
// stateMu is never held while taking another lock. markDirty is called with
// the owner's index lock held and therefore only takes stateMu.
type writeBack struct {
	name     string
	interval time.Duration
	file     *backingFile
	snapshot func() []record

	fileMu sync.Mutex

	stateMu sync.Mutex
	pending bool
	closed  bool
	timer   *time.Timer

	flushDuration *metrics.Histogram
	flushErrors   *metrics.Counter
}

func newWriteBack(name string, file *backingFile, interval time.Duration, snapshot func() []record) *writeBack {
	if interval <= 0 {
		interval = DefaultWriteInterval
	}
	return &writeBack{
		name:          name,
		interval:      interval,
		file:          file,
		snapshot:      snapshot,
		flushDuration: metrics.GetOrCreateHistogram(fmt.Sprintf(`davlock_store_flush_duration_seconds{store=%q}`, name)),
		flushErrors:   metrics.GetOrCreateCounter(fmt.Sprintf(`davlock_store_flush_errors_total{store=%q}`, name)),
	}
}

// markDirty schedules a write unless one is already pending
func (wb *writeBack) markDirty() {
	wb.stateMu.Lock()
	defer wb.stateMu.Unlock()

	if wb.closed || wb.pending {
		return
	}
	wb.pending = true
	wb.timer = time.AfterFunc(wb.interval, wb.onTimer)
}

// isPending reports whether changes are waiting to be written
func (wb *writeBack) isPending() bool {
	wb.stateMu.Lock()
	defer wb.stateMu.Unlock()
	return wb.pending
}

func (wb *writeBack) onTimer() {
	if err := wb.flush(); err != nil {
		Logger.Errorf("[%s] write back failed, retrying in %s: %v", wb.name, wb.interval, err)
	}
}

// flush writes the current state if changes are pending. On failure the
// store stays dirty and a new write is scheduled.
func (wb *writeBack) flush() error {
	wb.fileMu.Lock()
	defer wb.fileMu.Unlock()

	wb.stateMu.Lock()
	if !wb.pending {
		wb.stateMu.Unlock()
		return nil
	}
	wb.pending = false
	if wb.timer != nil {
		wb.timer.Stop()
		wb.timer = nil
	}
	wb.stateMu.Unlock()

	err := wb.writeSnapshot()
	if err != nil {
		wb.flushErrors.Inc()

		wb.stateMu.Lock()
		if !wb.pending {
			wb.pending = true
			if !wb.closed {
				wb.timer = time.AfterFunc(wb.interval, wb.onTimer)
			}
		}
		wb.stateMu.Unlock()
	}
	return err
}

// writeSnapshot takes a snapshot and writes it. Requires fileMu.
func (wb *writeBack) writeSnapshot() error {
	start := time.Now()
	records := wb.snapshot()
	if err := wb.file.write(records); err != nil {
		return fmt.Errorf("filestore: writing %s: %w", wb.file.path, err)
	}
	wb.flushDuration.UpdateDuration(start)
	Logger.Debugf("[%s] wrote %d records to %s in %s", wb.name, len(records), wb.file.path, time.Since(start))
	return nil
}

// close stops the timer, writes pending changes one last time and closes the file
func (wb *writeBack) close() error {
	wb.stateMu.Lock()
	if wb.closed {
		wb.stateMu.Unlock()
		return nil
	}
	wb.closed = true
	if wb.timer != nil {
		wb.timer.Stop()
		wb.timer = nil
	}
	wb.stateMu.Unlock()

	flushErr := wb.flush()
	if flushErr != nil {
		Logger.Errorf("[%s] final write back failed, changes are lost: %v", wb.name, flushErr)
	}

	wb.fileMu.Lock()
	defer wb.fileMu.Unlock()
	if err := wb.file.close(); err != nil && flushErr == nil {
		return fmt.Errorf("filestore: closing %s: %w", wb.file.path, err)
	}
	return flushErr
}
