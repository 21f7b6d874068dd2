package ledger

import (
	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	"github.com/gin-gonic/gin"
)

const (
	IdentityHeader    = v1.IdentityHeader
	IdempotencyHeader = v1.IdempotencyHeader
)

// Service exposes the Engine's operations over HTTP.
type Service struct {
	engine           *Engine
	maxBodySizeBytes int
}

func NewService(engine *Engine, maxBodySizeMB int) *Service {
	if engine == nil {
		panic("ledger: engine must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1
	}
	return &Service{
		engine:           engine,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the mutating ledger routes plus role lookup.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.CreateEventHandler)
	r.PATCH("/v1/events/:event_id", s.UpdateEventHandler)
	r.POST("/v1/events/:event_id/cancel", s.CancelEventHandler)
	r.POST("/v1/events/:event_id/purchase", s.PurchaseHandler)

	r.POST("/v1/tickets/:token_id/transfer", s.TransferHandler)
	r.POST("/v1/tickets/:token_id/invalidate", s.InvalidateHandler)
	r.POST("/v1/tickets/:token_id/list", s.ListForResaleHandler)
	r.POST("/v1/tickets/:token_id/buy", s.BuyResaleHandler)

	r.POST("/v1/roles/organizers/:identity", s.AssignOrganizerHandler)
	r.DELETE("/v1/roles/organizers/:identity", s.RevokeOrganizerHandler)
	r.GET("/v1/roles/:identity", s.GetRoleHandler)
}
