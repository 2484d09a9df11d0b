package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store wraps the Postgres connection used for chat persistence.
type Store struct {
	DB *sql.DB
}

// Contact request statuses.
const (
	ContactStatusPending  = "pending"
	ContactStatusReplied  = "replied"
	ContactStatusResolved = "resolved"
)

// Message sender values.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Conversation is one widget session.
type Conversation struct {
	ID             string    `json:"id"`
	UserIdentifier string    `json:"user_identifier"`
	CreatedAt      time.Time `json:"created_at"`
}

// Message is a single chat turn persisted for a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	MessageType    string    `json:"message_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// ContactRequest is a ticket routed to a human team.
type ContactRequest struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Department     string    `json:"department"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          *string   `json:"email"`
	CompanyName    *string   `json:"company_name"`
	BudgetRange    *string   `json:"budget_range"`
	ProductModule  *string   `json:"product_module"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// TeamReply is a team member's reply attached to a contact request.
type TeamReply struct {
	ID               string    `json:"id"`
	ContactRequestID string    `json:"contact_request_id"`
	Department       string    `json:"department"`
	ReplyText        string    `json:"reply_text"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewWithDSN opens a Postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// Conversation operations

func (s *Store) CreateConversation(ctx context.Context, userIdentifier string) (Conversation, error) {
	var c Conversation
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO conversations (user_identifier) VALUES ($1) RETURNING id, user_identifier, created_at`,
		userIdentifier).Scan(&c.ID, &c.UserIdentifier, &c.CreatedAt)
	return c, err
}

func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var c Conversation
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_identifier, created_at FROM conversations WHERE id=$1`,
		id).Scan(&c.ID, &c.UserIdentifier, &c.CreatedAt)
	return c, err
}

// Message operations

func (s *Store) SaveMessage(ctx context.Context, conversationID, sender, text, messageType string) (Message, error) {
	if messageType == "" {
		messageType = "text"
	}
	var m Message
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, sender, text, message_type) VALUES ($1,$2,$3,$4)
		 RETURNING id, conversation_id, sender, text, message_type, created_at`,
		conversationID, sender, text, messageType).
		Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Text, &m.MessageType, &m.CreatedAt)
	return m, err
}

func (s *Store) GetMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, conversation_id, sender, text, message_type, created_at
		 FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC LIMIT $2`,
		conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Text, &m.MessageType, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Contact request operations

func (s *Store) CreateContactRequest(ctx context.Context, rec ContactRequest) (ContactRequest, error) {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO contact_requests (conversation_id, department, name, phone, email, company_name, budget_range, product_module, message, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id, status, created_at`,
		rec.ConversationID, rec.Department, rec.Name, rec.Phone, rec.Email, rec.CompanyName,
		rec.BudgetRange, rec.ProductModule, rec.Message, ContactStatusPending).
		Scan(&rec.ID, &rec.Status, &rec.CreatedAt)
	return rec, err
}

func (s *Store) ListContactRequests(ctx context.Context, department string) ([]ContactRequest, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, conversation_id, department, name, phone, email, company_name, budget_range, product_module, message, status, created_at
		 FROM contact_requests WHERE department=$1 ORDER BY created_at DESC`,
		department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ContactRequest
	for rows.Next() {
		var r ContactRequest
		if err := rows.Scan(&r.ID, &r.ConversationID, &r.Department, &r.Name, &r.Phone, &r.Email,
			&r.CompanyName, &r.BudgetRange, &r.ProductModule, &r.Message, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateContactRequestStatus(ctx context.Context, id, status string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE contact_requests SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Team reply operations

func (s *Store) SaveTeamReply(ctx context.Context, contactRequestID, department, replyText string) (TeamReply, error) {
	var r TeamReply
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO team_replies (contact_request_id, department, reply_text) VALUES ($1,$2,$3)
		 RETURNING id, contact_request_id, department, reply_text, created_at`,
		contactRequestID, department, replyText).
		Scan(&r.ID, &r.ContactRequestID, &r.Department, &r.ReplyText, &r.CreatedAt)
	return r, err
}

func (s *Store) ListTeamReplies(ctx context.Context, contactRequestID string) ([]TeamReply, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, contact_request_id, department, reply_text, created_at
		 FROM team_replies WHERE contact_request_id=$1 ORDER BY created_at ASC`,
		contactRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TeamReply
	for rows.Next() {
		var r TeamReply
		if err := rows.Scan(&r.ID, &r.ContactRequestID, &r.Department, &r.ReplyText, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Team user operations

func (s *Store) CreateTeamUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO team_users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetTeamUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM team_users WHERE email=$1`, email).Scan(&id, &hash)
	return
}
