package server

// HTTPError is the unified JSON error envelope.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest creates a team account.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest logs a team member in.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued JWT.
type TokenResponse struct {
	Token string `json:"token"`
}

// ChatRequest is the widget's chat payload.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
}

// ChatResponse is the bot's reply envelope. Route tells the caller which
// path produced the answer: kb, llm_fallback, contact_suggested or
// english_only.
type ChatResponse struct {
	Answer          string  `json:"answer"`
	Confidence      float64 `json:"confidence"`
	Route           string  `json:"route"`
	Intent          string  `json:"intent"`
	ShowContactCard bool    `json:"show_contact_card"`
	ConversationID  string  `json:"conversation_id"`
	UserMessageID   string  `json:"user_message_id,omitempty"`
	BotMessageID    string  `json:"bot_message_id,omitempty"`
}

// ContactRequestPayload submits a ticket to a human team.
type ContactRequestPayload struct {
	ConversationID string `json:"conversation_id"`
	Department     string `json:"department"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	CompanyName    string `json:"company_name"`
	BudgetRange    string `json:"budget_range"`
	ProductModule  string `json:"product_module"`
	Message        string `json:"message"`
}

// ContactResponse acknowledges a submitted ticket.
type ContactResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ContactRequestID string `json:"contact_request_id,omitempty"`
}

// TeamReplyRequest posts a team answer back into a conversation.
type TeamReplyRequest struct {
	ConversationID   string `json:"conversation_id"`
	ContactRequestID string `json:"contact_request_id"`
	Department       string `json:"department"`
	Message          string `json:"message"`
}

// HealthResponse reports corpus state for operators.
type HealthResponse struct {
	OK          bool `json:"ok"`
	CorpusCount int  `json:"corpus_count"`
	Degraded    bool `json:"degraded"`
}

// ReloadResponse reports the outcome of a manual corpus reload.
type ReloadResponse struct {
	Success     bool   `json:"success"`
	CorpusCount int    `json:"corpus_count"`
	Message     string `json:"message"`
}
