package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshkart/order-service/internal/domain/agent"
)

const (
	listAgentsSQL  = `SELECT id, name, phone FROM delivery_agents ORDER BY name`
	upsertAgentSQL = `INSERT INTO delivery_agents (id, name, phone) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone`
)

var _ agent.Directory = (*AgentRepository)(nil)

// AgentRepository implements agent.Directory backed by PostgreSQL.
type AgentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository returns an AgentRepository that uses the given pool.
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// ListAll returns the full agent pool.
func (r *AgentRepository) ListAll(ctx context.Context) ([]agent.Agent, error) {
	rows, err := r.pool.Query(ctx, listAgentsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing delivery agents: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[agent.Agent])
}

// Upsert inserts or updates a delivery agent. Used by seeding; order flows
// never mutate agents.
func (r *AgentRepository) Upsert(ctx context.Context, a agent.Agent) error {
	if _, err := r.pool.Exec(ctx, upsertAgentSQL, a.ID, a.Name, a.Phone); err != nil {
		return fmt.Errorf("upserting delivery agent %q: %w", a.ID, err)
	}
	return nil
}
