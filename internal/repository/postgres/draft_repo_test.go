package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketwizard/internal/domain"
)

func TestDraftRepository_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    []byte
		wantErr error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT payload FROM event_form_progress`).
					WithArgs("eventFormProgress:u1").
					WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"data":{}}`)))
			},
			want: []byte(`{"data":{}}`),
		},
		{
			name: "missing maps to not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT payload FROM event_form_progress`).
					WithArgs("eventFormProgress:u1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "driver error passes through",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT payload FROM event_form_progress`).
					WithArgs("eventFormProgress:u1").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			repo := NewDraftRepository(db)
			got, err := repo.Get(ctx, "eventFormProgress:u1")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDraftRepository_Put(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	payload := []byte(`{"data":{"title":"Gala"}}`)
	mock.ExpectExec(`INSERT INTO event_form_progress .* ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("eventFormProgress:u1", payload).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewDraftRepository(db).Put(ctx, "eventFormProgress:u1", payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM event_form_progress WHERE key = \$1`).
		WithArgs("eventFormProgress:u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewDraftRepository(db).Delete(ctx, "eventFormProgress:u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS event_form_progress`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
