package utils

import (
	"sync"
	"time"
)

// upstreamHits counts calls made to the market-data provider since the last
// reset. It exists for the admin statistics view only; an occasional missed or
// doubled reset is tolerable, so a plain ticker suffices.
var (
	upstreamHits   int64
	upstreamHitsMu sync.Mutex
)

// CountUpstreamHit increments the upstream API call counter.
func CountUpstreamHit() {
	upstreamHitsMu.Lock()
	upstreamHits++
	upstreamHitsMu.Unlock()
}

// UpstreamHits returns the number of upstream calls since the last reset.
func UpstreamHits() int64 {
	upstreamHitsMu.Lock()
	defer upstreamHitsMu.Unlock()
	return upstreamHits
}

// ResetUpstreamHits zeroes the counter.
func ResetUpstreamHits() {
	upstreamHitsMu.Lock()
	upstreamHits = 0
	upstreamHitsMu.Unlock()
}

// StartUpstreamHitReset resets the counter on the given interval (24h in
// production). Best-effort background task, runs for process lifetime.
func StartUpstreamHitReset(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			ResetUpstreamHits()
			if Sugar != nil {
				Sugar.Debug("upstream API hit counter reset")
			}
		}
	}()
}
