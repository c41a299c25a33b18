// Package ledger selects a ledger backend by network name.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ledgerflow.com/internal/domain/entity"
	"ledgerflow.com/internal/domain/port"
)

// Router implements the LedgerConnector port by dispatching to the
// connector registered for the requested network.
type Router struct {
	connectors map[string]port.LedgerConnector
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{connectors: make(map[string]port.LedgerConnector)}
}

// Register binds a connector to one or more network names.
func (r *Router) Register(c port.LedgerConnector, networks ...string) *Router {
	for _, n := range networks {
		r.connectors[strings.ToLower(n)] = c
	}
	return r
}

// Networks lists the registered network names.
func (r *Router) Networks() []string {
	names := make([]string, 0, len(r.connectors))
	for n := range r.connectors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Connect connects to the named network.
func (r *Router) Connect(ctx context.Context, network string, creds entity.Credentials, ceilings entity.Ceilings) (port.LedgerClient, error) {
	c, ok := r.connectors[strings.ToLower(network)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown network %q (known: %s)",
			entity.ErrClientInitialization, network, strings.Join(r.Networks(), ", "))
	}
	return c.Connect(ctx, network, creds, ceilings)
}
