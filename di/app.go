package di

import (
	"roomres/internal/domains/reservation/listener"
	"roomres/internal/domains/reservation/scheduler"
	"roomres/transport/http"
)

// App bundles everything the process runs: the HTTP server, the settlement
// listener and the reservation sweeper, all sharing one set of
// infrastructure connections.
type App struct {
	HTTP       *http.HTTP
	Settlement *listener.Settlement
	Sweeper    *scheduler.Sweeper
}
