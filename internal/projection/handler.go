package projection

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	httperr "github.com/aevon-lab/ticket-ledger/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all read-only query routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/events", s.HandleListEvents)
	r.GET("/v1/events/:event_id", s.HandleGetEvent)
	r.GET("/v1/events/:event_id/tickets", s.HandleEventTickets)
	r.GET("/v1/events/:event_id/stats", s.HandleEventStats)

	r.GET("/v1/users/:identity/tickets", s.HandleUserTickets)
	r.GET("/v1/users/:identity/tokens", s.HandleTokensOf)
	r.GET("/v1/users/:identity/balance", s.HandleBalanceOf)

	r.GET("/v1/tickets/:token_id", s.HandleGetTicket)
	r.GET("/v1/tickets/:token_id/verify", s.HandleVerifyTicket)
	r.GET("/v1/tickets/:token_id/owner", s.HandleOwnerOf)
	r.GET("/v1/tickets/:token_id/token", s.HandleTokenMetadata)

	r.GET("/v1/resale", s.HandleResaleListings)
	r.GET("/v1/supply", s.HandleTotalSupply)
}

// HandleListEvents handles GET /v1/events
// Query parameters: organizer (optional; includes cancelled events)
func (s *Service) HandleListEvents(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		events []*v1.Event
		err    error
	)
	if organizer := c.Query("organizer"); organizer != "" {
		events, err = s.ListEventsByOrganizer(ctx, organizer)
	} else {
		events, err = s.ListActiveEvents(ctx)
	}
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Service) HandleGetEvent(c *gin.Context) {
	eventID, ok := bindID(c, "event_id")
	if !ok {
		return
	}
	evt, err := s.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, evt)
}

func (s *Service) HandleEventTickets(c *gin.Context) {
	eventID, ok := bindID(c, "event_id")
	if !ok {
		return
	}
	tickets, err := s.GetEventTickets(c.Request.Context(), eventID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// HandleEventStats handles GET /v1/events/:event_id/stats
// Requires the identity header of the event owner or an Admin.
func (s *Service) HandleEventStats(c *gin.Context) {
	eventID, ok := bindID(c, "event_id")
	if !ok {
		return
	}
	caller := strings.TrimSpace(c.GetHeader(v1.IdentityHeader))
	if caller == "" {
		c.JSON(http.StatusUnauthorized, httperr.ErrorResponse{
			ErrorType: httperr.HttpMissingIdentityError,
			Message:   "Missing " + v1.IdentityHeader + " header",
		})
		return
	}

	stats, err := s.EventStats(c.Request.Context(), caller, eventID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Service) HandleUserTickets(c *gin.Context) {
	tickets, err := s.GetUserTickets(c.Request.Context(), c.Param("identity"))
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (s *Service) HandleTokensOf(c *gin.Context) {
	identity := c.Param("identity")
	ids, err := s.TokensOf(c.Request.Context(), identity)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokensResponse{Identity: identity, TokenIDs: ids})
}

func (s *Service) HandleBalanceOf(c *gin.Context) {
	identity := c.Param("identity")
	n, err := s.BalanceOf(c.Request.Context(), identity)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{Identity: identity, Balance: n})
}

func (s *Service) HandleGetTicket(c *gin.Context) {
	tokenID, ok := bindID(c, "token_id")
	if !ok {
		return
	}
	ticket, err := s.GetTicket(c.Request.Context(), tokenID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// HandleVerifyTicket handles GET /v1/tickets/:token_id/verify
// Query parameters: owner (required)
func (s *Service) HandleVerifyTicket(c *gin.Context) {
	tokenID, ok := bindID(c, "token_id")
	if !ok {
		return
	}
	var query struct {
		Owner string `form:"owner" binding:"required"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	valid, err := s.VerifyTicket(c.Request.Context(), tokenID, query.Owner)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, v1.VerifyResponse{TokenID: tokenID, Owner: query.Owner, Valid: valid})
}

func (s *Service) HandleOwnerOf(c *gin.Context) {
	tokenID, ok := bindID(c, "token_id")
	if !ok {
		return
	}
	owner, err := s.OwnerOf(c.Request.Context(), tokenID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, OwnerResponse{TokenID: tokenID, Owner: owner})
}

func (s *Service) HandleTokenMetadata(c *gin.Context) {
	tokenID, ok := bindID(c, "token_id")
	if !ok {
		return
	}
	meta, err := s.TokenMetadata(c.Request.Context(), tokenID)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Service) HandleResaleListings(c *gin.Context) {
	listings, err := s.ListResaleListings(c.Request.Context())
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (s *Service) HandleTotalSupply(c *gin.Context) {
	n, err := s.TotalSupply(c.Request.Context())
	if err != nil {
		writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, SupplyResponse{TotalSupply: n})
}

func bindID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidPathError,
			Message:   "Invalid path parameters",
			Details:   param + " must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   err.Error(),
		})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, httperr.ErrorResponse{
			ErrorType: httperr.HttpForbiddenError,
			Message:   "Caller may not read this resource",
		})
	default:
		slog.Error("[Projection] Query failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query ledger",
		})
	}
}
