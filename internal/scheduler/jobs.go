// Package scheduler runs the static job table as isolated subprocess
// re-invocations of this same executable, on a 60-second outer tick,
// with durable last-run bookkeeping and per-job log capture.
package scheduler

import "time"

// Jobs is the static {name -> interval} table every Scheduler
// evaluates every tick. The keys are also the cobra subcommand names
// each job is re-invoked as.
var Jobs = map[string]time.Duration{
	"cache-expire": time.Hour,
	"data-export":  24 * time.Hour,
	"filter-tags":  24 * time.Hour,
	"ingest":       time.Hour,
	"tag":          24 * time.Hour,
}
