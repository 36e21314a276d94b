package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type branchRepository struct {
	db DB
}

func NewBranchRepository(db DB) interfaces.BranchRepository {
	return &branchRepository{db: db}
}

const branchColumns = `id, name, name_local, address, active, opening_hours`

func (r *branchRepository) FindByID(ctx context.Context, id string) (*domain.Branch, error) {
	b, err := scanBranch(r.db.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, domain.ErrBranchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load branch: %w", err)
	}
	return b, nil
}

func (r *branchRepository) ListActive(ctx context.Context) ([]*domain.Branch, error) {
	rows, err := r.db.Query(ctx, `SELECT `+branchColumns+` FROM branches WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	defer rows.Close()

	var branches []*domain.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func scanBranch(row Row) (*domain.Branch, error) {
	var (
		b     domain.Branch
		hours []byte
	)
	if err := row.Scan(&b.ID, &b.Name, &b.NameLocal, &b.Address, &b.Active, &hours); err != nil {
		return nil, err
	}
	b.Hours = decodeHours(hours)
	return &b, nil
}

// decodeHours treats a missing or malformed schedule as always closed.
func decodeHours(data []byte) domain.OpeningHours {
	if len(data) == 0 {
		return domain.AlwaysClosed()
	}
	var raw map[string]domain.RawDayHours
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.AlwaysClosed()
	}
	hours, err := domain.ParseOpeningHours(raw)
	if err != nil {
		return domain.AlwaysClosed()
	}
	return hours
}
