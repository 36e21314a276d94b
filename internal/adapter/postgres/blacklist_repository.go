package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/orderdesk/internal/domain"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type blacklistRepository struct {
	db DB
}

func NewBlacklistRepository(db DB) interfaces.BlacklistRepository {
	return &blacklistRepository{db: db}
}

const blacklistColumns = `id, email, phone, reason, active, created_at`

func (r *blacklistRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.BlacklistEntry, error) {
	query := `SELECT ` + blacklistColumns + ` FROM customer_blacklist
		WHERE active AND lower(trim(email)) = $1 LIMIT 1`
	return r.findOne(ctx, query, email)
}

func (r *blacklistRepository) FindActiveByPhone(ctx context.Context, phone string) (*domain.BlacklistEntry, error) {
	query := `SELECT ` + blacklistColumns + ` FROM customer_blacklist
		WHERE active AND regexp_replace(phone, '[\s()-]', '', 'g') = $1 LIMIT 1`
	return r.findOne(ctx, query, phone)
}

func (r *blacklistRepository) findOne(ctx context.Context, query, arg string) (*domain.BlacklistEntry, error) {
	var e domain.BlacklistEntry
	err := r.db.QueryRow(ctx, query, arg).Scan(&e.ID, &e.Email, &e.Phone, &e.Reason, &e.Active, &e.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist: %w", err)
	}
	return &e, nil
}
