package davlock

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
)

// managerMetrics are the counters of one lock manager, labeled with its name
type managerMetrics struct {
	granted   *metrics.Counter
	refreshed *metrics.Counter
	removed   *metrics.Counter
	expired   *metrics.Counter
	conflicts *metrics.Counter
	limited   *metrics.Counter
}

func newManagerMetrics(name string) *managerMetrics {
	counter := func(metric string) *metrics.Counter {
		return metrics.GetOrCreateCounter(fmt.Sprintf(`%s{namespace=%q}`, metric, name))
	}
	return &managerMetrics{
		granted:   counter("davlock_locks_granted_total"),
		refreshed: counter("davlock_locks_refreshed_total"),
		removed:   counter("davlock_locks_removed_total"),
		expired:   counter("davlock_locks_expired_total"),
		conflicts: counter("davlock_lock_conflicts_total"),
		limited:   counter("davlock_lock_limit_rejections_total"),
	}
}
