package clientdata

import "time"

// TTLs added to time.Now() when storing
const (
	TTLPolicyRate = 6 * time.Hour // central-bank policy rate changes at meetings
)
