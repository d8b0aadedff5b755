package connection

import (
	"context"

	"github.com/kailas-cloud/spendcap/internal/domain"
	domconn "github.com/kailas-cloud/spendcap/internal/domain/connection"
)

// StaticRepo serves connection budgets from configuration.
type StaticRepo struct {
	conns   map[string]domconn.Connection
	invalid map[string]error
}

// NewStatic creates a directory from id -> budget pairs; a nil budget means unlimited.
// Entries that fail validation are reported by Find.
func NewStatic(budgets map[string]*uint64) *StaticRepo {
	r := &StaticRepo{
		conns:   make(map[string]domconn.Connection, len(budgets)),
		invalid: make(map[string]error),
	}
	for id, b := range budgets {
		c, err := domconn.New(id, b)
		if err != nil {
			r.invalid[id] = err
			continue
		}
		r.conns[id] = c
	}
	return r
}

// Find returns the configured connection.
func (r *StaticRepo) Find(_ context.Context, id string) (domconn.Connection, error) {
	if err, bad := r.invalid[id]; bad {
		return domconn.Connection{}, err
	}
	c, ok := r.conns[id]
	if !ok {
		return domconn.Connection{}, domain.ErrConnectionNotFound
	}
	return c, nil
}
