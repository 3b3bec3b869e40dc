package leads

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "Jordan Smith", "", "+15555550123", "2024 Honda Civic", "", "web_form", StatusNew).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	repo := NewPostgresRepository(mock)
	lead, err := repo.Create(context.Background(), &CreateLeadRequest{
		Name:            "Jordan Smith",
		Phone:           "+15555550123",
		VehicleInterest: "2024 Honda Civic",
		Source:          "web_form",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Equal(t, now, lead.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM leads").
		WithArgs("missing-id").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "email", "phone", "vehicle_interest", "message", "source", "status", "created_at", "updated_at",
		}))

	repo := NewPostgresRepository(mock)
	_, err = repo.GetByID(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrLeadNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE leads SET status").
		WithArgs(StatusContacted, "lead-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.UpdateStatus(context.Background(), "lead-1", StatusContacted))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateStatusMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE leads SET status").
		WithArgs(StatusContacted, "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepository(mock)
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "nope", StatusContacted), ErrLeadNotFound)
}

func TestPostgresRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM leads").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "email", "phone", "vehicle_interest", "message", "source", "status", "created_at", "updated_at",
		}).AddRow("l1", "Jordan", "", "+15555550123", "Civic", "", "web_form", StatusNew, now, now).
			AddRow("l2", "Sam", "sam@example.com", "", "Camry", "", "autotrader", StatusContacted, now, now))

	repo := NewPostgresRepository(mock)
	list, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Jordan", list[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
