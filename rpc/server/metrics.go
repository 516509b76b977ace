package server

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

var (
	unknownCommands = metrics.GetOrCreateCounter(`rkv_unknown_commands_total`)
	malformedTotal  = metrics.GetOrCreateCounter(`rkv_malformed_requests_total`)
	panicsTotal     = metrics.GetOrCreateCounter(`rkv_handler_panics_total`)
)

// commandStats holds the metrics of one command
type commandStats struct {
	calls    *metrics.Counter
	duration *metrics.Histogram
}

func newCommandStats(name string) *commandStats {
	return &commandStats{
		calls:    metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_commands_total{command=%q}`, name)),
		duration: metrics.GetOrCreateHistogram(fmt.Sprintf(`rkv_command_duration_seconds{command=%q}`, name)),
	}
}

func (s *commandStats) observe(start time.Time) {
	s.calls.Inc()
	s.duration.UpdateDuration(start)
}

// errorCounter returns the counter of replies with the given error kind
func errorCounter(kind common.ErrorKind) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`rkv_command_errors_total{kind=%q}`, kind.String()))
}
