package redisx

import "time"

const (
	// Order status cache: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%d"

	// Failed login counter: login_attempts:{username} -> count (windowed TTL)
	KeyLoginAttempts = "login_attempts:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache   = 5 * time.Minute
	TTLLoginCooldown = 15 * time.Minute
	TTLDedup         = 48 * time.Hour
)
