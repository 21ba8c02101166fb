package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/stoik/simplecrm/internal/models"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
)

type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, google_id, image, created_at
		FROM users WHERE email = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.GoogleID,
		&user.Image,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, db.Wrap("look up user", err)
	}

	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, name, google_id, image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email)
		DO NOTHING
		RETURNING id, created_at
	`

	created := *user
	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Name,
		user.GoogleID,
		user.Image,
	).Scan(&created.ID, &created.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// Another sign-in inserted the same email first
		return r.GetByEmail(ctx, user.Email)
	}
	if err != nil {
		return nil, db.Wrap("insert user", err)
	}

	return &created, nil
}
