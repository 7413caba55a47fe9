package redisx

import "time"

const (
	// Cache order snapshot for tracking: order_track:{order_code} -> order JSON
	KeyOrderTrack = "order_track:%s"

	// Dedup event processing: dedup:{service}:{id} (id = event_id or gateway event key)
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLTrackCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
