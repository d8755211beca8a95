package docstore

import "time"

// SetNowFunc overrides the gateway clock for tests in docstore_test, which
// cannot reach the unexported now field directly.
func SetNowFunc(g *Gateway, now func() time.Time) {
	g.now = now
}
