package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aitelhq/supportbot/internal/knowledge"
	"github.com/aitelhq/supportbot/internal/store"
)

// ContactHandler records tickets for human follow-up.
type ContactHandler struct {
	Store *store.Store
}

func (h *ContactHandler) Register(g *echo.Group) {
	g.POST("/contact", h.create)
}

// Contact
//
//	@Summary		Submit a contact request
//	@Description	Creates a ticket for the named department and confirms it in the conversation
//	@Tags			contact
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ContactRequestPayload	true	"Contact payload"
//	@Success		201		{object}	ContactResponse
//	@Failure		400		{object}	HTTPError
//	@Failure		500		{object}	HTTPError
//	@Router			/api/contact [post]
func (h *ContactHandler) create(c echo.Context) error {
	var req ContactRequestPayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validateContact(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	rec, err := h.Store.CreateContactRequest(ctx, store.ContactRequest{
		ConversationID: req.ConversationID,
		Department:     req.Department,
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		Email:          optional(req.Email),
		CompanyName:    optional(req.CompanyName),
		BudgetRange:    optional(req.BudgetRange),
		ProductModule:  optional(req.ProductModule),
		Message:        strings.TrimSpace(req.Message),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	confirmation := fmt.Sprintf("Thanks %s! Your request has been sent to our %s team. They will contact you shortly.",
		rec.Name, departmentLabel(rec.Department))
	if _, err := h.Store.SaveMessage(ctx, rec.ConversationID, store.SenderBot, confirmation, "contact_confirmation"); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	contactRequestsCreated.WithLabelValues(rec.Department).Inc()
	return c.JSON(http.StatusCreated, ContactResponse{
		Success:          true,
		Message:          confirmation,
		ContactRequestID: rec.ID,
	})
}

func validateContact(req ContactRequestPayload) error {
	if _, err := uuid.Parse(req.ConversationID); err != nil {
		return fmt.Errorf("invalid conversation id")
	}
	if !validDepartment(req.Department) {
		return fmt.Errorf("unknown department: %q", req.Department)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

// Tickets route to the two human teams only; general support questions stay
// with the bot.
func validDepartment(d string) bool {
	switch knowledge.Intent(d) {
	case knowledge.IntentSales, knowledge.IntentTechnical:
		return true
	}
	return false
}

func departmentLabel(d string) string {
	if knowledge.Intent(d) == knowledge.IntentSales {
		return "sales and marketing"
	}
	return "engineering"
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
