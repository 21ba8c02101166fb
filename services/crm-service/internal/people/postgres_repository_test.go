package people

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoik/simplecrm/internal/models"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
)

const (
	listAll   = `(?s)SELECT\s+id,\s*user_id,.*FROM\s+people\s+ORDER\s+BY\s+created_at\s+DESC`
	listOwned = `(?s)SELECT\s+id,\s*user_id,.*FROM\s+people\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`
	insertRow = `(?s)INSERT\s+INTO\s+people\s*\(user_id,\s*name,\s*company\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,`
)

var personCols = []string{
	"id", "user_id", "name", "company", "email", "phone", "notes",
	"follow_up_date", "last_contact_date", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgresRepository(conn), mock
}

func TestRepositoryList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	owner := uuid.New()
	newer := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	followUp := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(personCols).
		AddRow(2, owner.String(), "Grace", "Navy", "grace@example.com", nil, nil, followUp, nil, newer, newer).
		AddRow(1, nil, "Ada", nil, nil, nil, nil, nil, nil, older, older)
	mock.ExpectQuery(listAll).WillReturnRows(rows)

	got, err := repo.List(context.Background(), uuid.NullUUID{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, uuid.NullUUID{UUID: owner, Valid: true}, got[0].UserID)
	assert.Equal(t, "Navy", *got[0].Company)
	require.NotNil(t, got[0].FollowUpDate)
	assert.Equal(t, "2024-04-01", got[0].FollowUpDate.String())
	assert.Nil(t, got[0].LastContactDate)

	assert.False(t, got[1].UserID.Valid)
	assert.Nil(t, got[1].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(listAll).WillReturnRows(sqlmock.NewRows(personCols))

	got, err := repo.List(context.Background(), uuid.NullUUID{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepositoryList_ByOwner(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	owner := uuid.New()
	mock.ExpectQuery(listOwned).WithArgs(owner).WillReturnRows(sqlmock.NewRows(personCols))

	_, err := repo.List(context.Background(), uuid.NullUUID{UUID: owner, Valid: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList_Error(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(listAll).WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "people" does not exist`})

	_, err := repo.List(context.Background(), uuid.NullUUID{})

	var storeErr *db.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "list people", storeErr.Op)
	assert.Equal(t, `relation "people" does not exist`, storeErr.Message())
	assert.Equal(t, "42P01", storeErr.Code())
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	owner := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	company := "Analytical Engines"
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertRow).
		WithArgs(owner, "Ada Lovelace", &company).
		WillReturnRows(sqlmock.NewRows(personCols).
			AddRow(7, owner.UUID.String(), "Ada Lovelace", company, nil, nil, nil, nil, nil, now, now))

	got, err := repo.Create(context.Background(), models.NewPerson{UserID: owner, Name: "Ada Lovelace", Company: &company})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, company, *got.Company)
	assert.Equal(t, now, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_Error(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(insertRow).WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), models.NewPerson{Name: "Ada"})

	var storeErr *db.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "create person", storeErr.Op)
	assert.Equal(t, "connection reset", storeErr.Message())
}
