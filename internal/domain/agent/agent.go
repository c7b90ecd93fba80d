// Package agent holds the delivery agent pool: immutable reference data
// created by seeding and read for random assignment at order placement.
package agent

import (
	"context"
	"math/rand/v2"
)

// Agent is a delivery agent from the seeded pool.
type Agent struct {
	ID    string
	Name  string
	Phone string
}

// Directory provides read access to the agent pool.
type Directory interface {
	ListAll(ctx context.Context) ([]Agent, error)
}

// Pick selects one agent uniformly at random from a snapshot of the pool.
// The second return value is false when the pool is empty; assignment is a
// soft fault in that case, never an error.
func Pick(pool []Agent) (Agent, bool) {
	if len(pool) == 0 {
		return Agent{}, false
	}
	return pool[rand.IntN(len(pool))], true
}
