// Package scheduler triggers fetch cycles periodically using
// github.com/robfig/cron/v3.
//
// A fixed interval is expressed as the cron descriptor "@every <interval>";
// an explicit cron expression may be configured instead. Firings that arrive
// while the previous run is still in progress are skipped, and Stop waits for
// a running job before returning.
package scheduler
