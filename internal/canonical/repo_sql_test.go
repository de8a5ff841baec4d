package canonical

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-backend/internal/fields"
	"filing-backend/internal/shared/storage/db"
)

func newMockRepo(t *testing.T) (*SQLRepo, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewSQLRepo(sqlx.NewDb(mockDB, "pgx")), mock
}

func TestSQLUpsertSingletonWritesOnlyGivenColumns(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO income (user_id, spouse_number, gross_annual_income, pay_frequency) VALUES ($1, $2, $3, $4) " +
			"ON CONFLICT (user_id, spouse_number) DO UPDATE SET gross_annual_income = excluded.gross_annual_income, pay_frequency = excluded.pay_frequency")).
		WithArgs("u1", 2, 104000.0, "biweekly").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Isolated(context.Background(), "income", func(w Writer) error {
		return w.UpsertSingleton(context.Background(), TableIncome, Key{UserID: "u1", SpouseNumber: 2},
			Values{"pay_frequency": "biweekly", "gross_annual_income": 104000.0})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUpsertRejectsUnknownColumn(t *testing.T) {
	repo, mock := newMockRepo(t)
	err := repo.UpsertSingleton(context.Background(), TablePersonal, Key{UserID: "u1"}, Values{"ssn": "123456789"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLReplaceCollectionDeletesThenInserts(t *testing.T) {
	repo, mock := newMockRepo(t)
	scope := Key{UserID: "u1"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM children WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO children (id, user_id, position, first_name, middle_name, last_name, date_of_birth, relationship, ssn_last_4) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)")).
		WithArgs(rowID(TableChildren, scope, 0), "u1", 0, "Tommy", nil, "Doe", nil, "son", "3333").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceCollection(context.Background(), TableChildren, scope, []Values{
		{"first_name": "Tommy", "last_name": "Doe", "relationship": "son", "ssn_last_4": "3333"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLIsolatedRollsBackToSavepoint(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT sp_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assets WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT sp_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT sp_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT sp_2")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM debts WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT sp_2")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var assetsErr error
	err := repo.Stage(ctx, func(w Writer) error {
		assetsErr = w.Isolated(ctx, "assets", func(iw Writer) error {
			return iw.ReplaceCollection(ctx, TableAssets, Key{UserID: "u1"}, nil)
		})
		return w.Isolated(ctx, "debts", func(iw Writer) error {
			return iw.ReplaceCollection(ctx, TableDebts, Key{UserID: "u1"}, nil)
		})
	})
	require.NoError(t, err)
	require.Error(t, assetsErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStageRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personal_info WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Stage(ctx, func(w Writer) error {
		return w.ClearUser(ctx, "u1")
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteMatchesMemoryRepo(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.Open(ctx, db.DriverSQLite, ":memory:", db.DefaultMigrateOptions())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.RunMigrations(ctx, sqlDB))

	records := &staticRecords{records: []SourceRecord{
		{DocumentID: "a", DocType: fields.PayStub, Fields: fields.Parse(acmeStub, fields.PayStub)},
		{DocumentID: "b", DocType: fields.TaxReturn, Fields: taxReturnWithDependents("Tommy Doe", "Sally Doe")},
		{DocumentID: "c", DocType: fields.PriorCourtOrder, Fields: fields.Map{"caseNumber": "FL-1", "childSupportAmount": 450.0}},
		{DocumentID: "d", DocType: fields.BankStatement, Fields: fields.Map{"assets": []any{map[string]any{"assetType": "savings", "value": 2500.0}}}},
	}}
	sqlEngine := NewEngine(NewSQLRepo(sqlDB), records)
	memEngine := NewEngine(NewMemoryRepo(), records)

	_, err = sqlEngine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	_, err = sqlEngine.Reaggregate(ctx, "u1")
	require.NoError(t, err)
	_, err = memEngine.Reaggregate(ctx, "u1")
	require.NoError(t, err)

	got, err := sqlEngine.Profile(ctx, "u1")
	require.NoError(t, err)
	want, err := memEngine.Profile(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, want, got)
	require.Len(t, got.Children, 2)
	assert.True(t, *got.CourtInfo.HasMinorChildren)

	report, err := sqlEngine.Migrate(ctx, "u1", fields.W2, fields.Map{"employerName": "Globex", "wages": 52000.0})
	require.NoError(t, err)
	assert.False(t, report.Partial())
	got, err = sqlEngine.Profile(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Employers, 1)
	assert.Equal(t, str("Globex"), got.Employers[0].EmployerName)
	assert.Equal(t, 52000.0, *got.Incomes[0].W2Wages)
}
