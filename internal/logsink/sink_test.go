package logsink

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSink(t *testing.T) (*SQLSink, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	mock.ExpectExec(createLogTableSQL).WillReturnResult(sqlmock.NewResult(0, 0))

	sink, err := newSQLSink(db)
	require.NoError(t, err)

	t.Cleanup(func() { _ = sink.Close() })

	return sink, mock
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord("what is the price of BTC?")

	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, "what is the price of BTC?", rec.Question)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, "UTC", rec.CreatedAt.Location().String())

	other := NewRecord("another question")
	assert.NotEqual(t, rec.RunID, other.RunID)
}

func TestWriteSuccessRecord(t *testing.T) {
	sink, mock := newMockSink(t)

	rec := NewRecord("price of BTC?")
	rec.GeneratedSQL = "SELECT price_usd FROM current_top_10 LIMIT 200"
	rec.Answer = "Bitcoin is at $95,432.10."
	rec.RowCount = 1
	rec.LatencyMS = 1234.5
	rec.TablesUsed = []string{"current_top_10"}

	mock.ExpectExec(`INSERT INTO agent_query_log VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`).
		WithArgs(rec.RunID, rec.CreatedAt, rec.Question, rec.GeneratedSQL, rec.Answer,
			1, 1234.5, `["current_top_10"]`, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, sink.Write(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteFailureRecord(t *testing.T) {
	sink, mock := newMockSink(t)

	rec := NewRecord("drop everything")
	rec.Error = "blocked keyword 'DROP' found in generated SQL"

	mock.ExpectExec(`INSERT INTO agent_query_log VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`).
		WithArgs(rec.RunID, rec.CreatedAt, rec.Question, "", "",
			0, 0.0, `null`, rec.Error).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, sink.Write(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLSinkCreatesTable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	mock.ExpectExec(createLogTableSQL).WillReturnResult(sqlmock.NewResult(0, 0))

	sink, err := newSQLSink(db)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	_ = sink.Close()
}
