// internal/app/system/timeouts/timeouts.go
package timeouts

import "time"

// Deadline tiers for context-bound operations. Handlers and stores pick
// the tier that matches the work instead of inventing their own numbers.
//
//	Ping   - liveness and readiness probes
//	Short  - single-document reads and writes
//	Medium - saves that include image uploads
//	Long   - sweep jobs that scan whole collections
const (
	Ping   = 2 * time.Second
	Short  = 5 * time.Second
	Medium = 15 * time.Second
	Long   = 60 * time.Second
)
