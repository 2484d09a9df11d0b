package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aitelhq/supportbot/internal/runtime"
	"github.com/aitelhq/supportbot/internal/store"
)

// TeamHandler serves the authenticated team dashboard: listing pending
// tickets per department and replying to them.
type TeamHandler struct {
	Store  *store.Store
	Secret []byte
}

func (h *TeamHandler) Register(g *echo.Group) {
	g.Use(runtime.EchoAuthMiddleware(h.Secret))
	g.GET("/requests/:department", h.listRequests)
	g.GET("/replies/:contactRequestId", h.listReplies)
	g.POST("/reply", h.reply)
	g.POST("/requests/:id/resolve", h.resolve)
}

// ListRequests
//
//	@Summary	List contact requests for a department
//	@Tags		team
//	@Security	BearerAuth
//	@Security	CookieAuth
//	@Produce	json
//	@Success	200	{array}		store.ContactRequest
//	@Failure	400	{object}	HTTPError
//	@Router		/api/team/requests/{department} [get]
func (h *TeamHandler) listRequests(c echo.Context) error {
	department := c.Param("department")
	if !validDepartment(department) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown department")
	}
	reqs, err := h.Store.ListContactRequests(c.Request().Context(), department)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if reqs == nil {
		reqs = []store.ContactRequest{}
	}
	return c.JSON(http.StatusOK, reqs)
}

func (h *TeamHandler) listReplies(c echo.Context) error {
	id := c.Param("contactRequestId")
	replies, err := h.Store.ListTeamReplies(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if replies == nil {
		replies = []store.TeamReply{}
	}
	return c.JSON(http.StatusOK, replies)
}

// Reply
//
//	@Summary		Reply to a contact request
//	@Description	Stores the reply, marks the ticket replied and posts the text back into the conversation
//	@Tags			team
//	@Security		BearerAuth
//	@Security		CookieAuth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		TeamReplyRequest	true	"Reply payload"
//	@Success		201		{object}	store.TeamReply
//	@Failure		400		{object}	HTTPError
//	@Failure		404		{object}	HTTPError
//	@Router			/api/team/reply [post]
func (h *TeamHandler) reply(c echo.Context) error {
	var req TeamReplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.ContactRequestID == "" || req.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "contact_request_id and conversation_id are required")
	}
	if !validDepartment(req.Department) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown department")
	}

	ctx := c.Request().Context()
	saved, err := h.Store.SaveTeamReply(ctx, req.ContactRequestID, req.Department, req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.Store.UpdateContactRequestStatus(ctx, req.ContactRequestID, store.ContactStatusReplied); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "contact request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if _, err := h.Store.SaveMessage(ctx, req.ConversationID, store.SenderBot, req.Message, "team_reply"); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, saved)
}

func (h *TeamHandler) resolve(c echo.Context) error {
	id := c.Param("id")
	if err := h.Store.UpdateContactRequestStatus(c.Request().Context(), id, store.ContactStatusResolved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "contact request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusOK)
}
