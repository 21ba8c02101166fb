package people

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/stoik/simplecrm/internal/models"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
)

const personColumns = `id, user_id, name, company, email, phone, notes,
	follow_up_date, last_contact_date, created_at, updated_at`

type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) List(ctx context.Context, owner uuid.NullUUID) ([]models.Person, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if owner.Valid {
		query := `SELECT ` + personColumns + `
			FROM people WHERE user_id = $1 ORDER BY created_at DESC`
		rows, err = r.db.QueryContext(ctx, query, owner.UUID)
	} else {
		query := `SELECT ` + personColumns + `
			FROM people ORDER BY created_at DESC`
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, db.Wrap("list people", err)
	}
	defer rows.Close()

	people := make([]models.Person, 0)
	for rows.Next() {
		var p models.Person
		if err := scanPerson(rows, &p); err != nil {
			return nil, db.Wrap("list people", err)
		}
		people = append(people, p)
	}

	if err := rows.Err(); err != nil {
		return nil, db.Wrap("list people", err)
	}

	return people, nil
}

func (r *PostgresRepository) Create(ctx context.Context, in models.NewPerson) (*models.Person, error) {
	query := `
		INSERT INTO people (user_id, name, company)
		VALUES ($1, $2, $3)
		RETURNING ` + personColumns

	var p models.Person
	row := r.db.QueryRowContext(ctx, query, in.UserID, in.Name, in.Company)
	if err := scanPerson(row, &p); err != nil {
		return nil, db.Wrap("create person", err)
	}

	return &p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner, p *models.Person) error {
	return s.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Company,
		&p.Email,
		&p.Phone,
		&p.Notes,
		&p.FollowUpDate,
		&p.LastContactDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
