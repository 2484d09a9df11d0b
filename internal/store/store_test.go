package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestCreateConversation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO conversations (user_identifier) VALUES ($1) RETURNING id, user_identifier, created_at`)).
		WithArgs("anonymous").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_identifier", "created_at"}).
			AddRow("c1d4a2f0-0000-0000-0000-000000000001", "anonymous", now))

	c, err := st.CreateConversation(context.Background(), "anonymous")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if c.ID == "" || c.UserIdentifier != "anonymous" {
		t.Fatalf("unexpected conversation: %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveMessageDefaultsType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs("conv-1", SenderUser, "hello", "text").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "sender", "text", "message_type", "created_at"}).
			AddRow("m-1", "conv-1", SenderUser, "hello", "text", now))

	m, err := st.SaveMessage(context.Background(), "conv-1", SenderUser, "hello", "")
	if err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if m.MessageType != "text" {
		t.Fatalf("expected default message type, got %q", m.MessageType)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMessagesOrdersAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	now := time.Now()

	mock.ExpectQuery(`SELECT id, conversation_id, sender, text, message_type, created_at\s+FROM messages WHERE conversation_id=\$1 ORDER BY created_at ASC LIMIT \$2`).
		WithArgs("conv-1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "sender", "text", "message_type", "created_at"}).
			AddRow("m-1", "conv-1", SenderUser, "hi", "text", now).
			AddRow("m-2", "conv-1", SenderBot, "hello", "text", now.Add(time.Second)))

	msgs, err := st.GetMessages(context.Background(), "conv-1", 0)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Sender != SenderUser || msgs[1].Sender != SenderBot {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateContactRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}
	now := time.Now()
	email := "buyer@example.com"

	mock.ExpectQuery(`INSERT INTO contact_requests`).
		WithArgs("conv-1", "sales_marketing", "Asha", "+9144000000", &email,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "need a quote", ContactStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).
			AddRow("cr-1", ContactStatusPending, now))

	rec, err := st.CreateContactRequest(context.Background(), ContactRequest{
		ConversationID: "conv-1",
		Department:     "sales_marketing",
		Name:           "Asha",
		Phone:          "+9144000000",
		Email:          &email,
		Message:        "need a quote",
	})
	if err != nil {
		t.Fatalf("CreateContactRequest: %v", err)
	}
	if rec.ID != "cr-1" || rec.Status != ContactStatusPending {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateContactRequestStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contact_requests SET status=$2 WHERE id=$1`)).
		WithArgs("missing", ContactStatusReplied).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := st.UpdateContactRequestStatus(context.Background(), "missing", ContactStatusReplied); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTeamUserRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := &Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO team_users (email, password_hash) VALUES ($1,$2)`)).
		WithArgs("team@example.com", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, password_hash FROM team_users WHERE email=$1`)).
		WithArgs("team@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).AddRow("u-1", "hash"))

	if err := st.CreateTeamUser(context.Background(), "team@example.com", "hash"); err != nil {
		t.Fatalf("CreateTeamUser: %v", err)
	}
	id, hash, err := st.GetTeamUserByEmail(context.Background(), "team@example.com")
	if err != nil {
		t.Fatalf("GetTeamUserByEmail: %v", err)
	}
	if id != "u-1" || hash != "hash" {
		t.Fatalf("unexpected user row: %q %q", id, hash)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
