package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

func TestGrantAuditRepository_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewGrantAuditRepository(db)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := models.GrantEvent{
		ID:          "evt_1",
		Type:        models.EventGrantIssued,
		OrderID:     "order_1",
		PaymentID:   "pay_1",
		TokenPrefix: "abcd1234",
		Amount:      19900,
		Timestamp:   ts,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grant_events")).
		WithArgs("evt_1", "grant.issued", "order_1", "pay_1", "abcd1234", int64(19900), ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Append(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantAuditRepository_ListByPaymentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewGrantAuditRepository(db)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"event_id", "event_type", "order_id", "payment_id", "token_prefix", "amount", "created_at"}).
		AddRow("evt_1", "grant.issued", "order_1", "pay_1", "abcd1234", int64(19900), ts).
		AddRow("evt_2", "grant.redeemed", "order_1", "pay_1", "abcd1234", int64(0), ts.Add(time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM grant_events WHERE payment_id = $1")).
		WithArgs("pay_1").
		WillReturnRows(rows)

	events, err := repo.ListByPaymentID(context.Background(), "pay_1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventGrantIssued, events[0].Type)
	assert.Equal(t, models.EventGrantRedeemed, events[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantAuditRepository_InitDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS grant_events")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_grant_events_payment_id")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewGrantAuditRepository(db).InitDB(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
