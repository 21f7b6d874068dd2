package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	v1 "github.com/aevon-lab/ticket-ledger/internal/api/v1"
	httperr "github.com/aevon-lab/ticket-ledger/internal/core/errors"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed  = "Failed to read request body"
	msgInvalidJSON     = "Invalid JSON body"
	msgMissingIdentity = "Missing " + IdentityHeader + " header"
)

// requestError is a transport-level failure: the request never reached the engine.
type requestError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *requestError) Error() string {
	return e.message
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindEventCancelled, KindSoldOut, KindInvalidated, KindNotListed,
		KindAlreadyCancelled, KindIdempotencyConflict:
		return http.StatusConflict
	case KindPriceCapExceeded:
		return http.StatusUnprocessableEntity
	case KindSettlementFailed:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

func (s *Service) CreateEventHandler(c *gin.Context) {
	caller, reqErr := callerFrom(c)
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}
	var req v1.CreateEventRequest
	if reqErr := s.bindBody(c, &req); reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	evt, err := s.engine.CreateEvent(c.Request.Context(), caller, req)
	writeResult(c, http.StatusCreated, evt, err)
}

func (s *Service) UpdateEventHandler(c *gin.Context) {
	caller, reqErr := callerFrom(c)
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}
	eventID, reqErr := pathID(c, "event_id")
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}
	var req v1.UpdateEventRequest
	if reqErr := s.bindBody(c, &req); reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	evt, err := s.engine.UpdateEvent(c.Request.Context(), caller, eventID, req)
	writeResult(c, http.StatusOK, evt, err)
}

func (s *Service) CancelEventHandler(c *gin.Context) {
	caller, eventID, reqErr := callerAndID(c, "event_id")
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	err := s.engine.CancelEvent(c.Request.Context(), caller, eventID)
	writeResult(c, http.StatusOK, nil, err)
}

func (s *Service) PurchaseHandler(c *gin.Context) {
	caller, eventID, reqErr := callerAndID(c, "event_id")
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	ticket, err := s.engine.PurchasePrimary(c.Request.Context(), caller, eventID)
	writeResult(c, http.StatusCreated, ticket, err)
}

func (s *Service) TransferHandler(c *gin.Context) {
	caller, tokenID, reqErr := callerAndID(c, "token_id")
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}
	var req v1.TransferRequest
	if reqErr := s.bindBody(c, &req); reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	err := s.engine.Transfer(c.Request.Context(), caller, tokenID, req.Recipient)
	writeResult(c, http.StatusOK, nil, err)
}

func (s *Service) InvalidateHandler(c *gin.Context) {
	caller, tokenID, reqErr := callerAndID(c, "token_id")
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	err := s.engine.InvalidateTicket(c.Request.Context(), caller, tokenID)
	writeResult(c, http.StatusOK, nil, err)
}

func (s *Service) ListForResaleHandler(c *gin.Context) {
	caller, tokenID, reqErr := callerAndID(c, "token_id")
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}
	var req v1.ListForResaleRequest
	if reqErr := s.bindBody(c, &req); reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	err := s.engine.ListForResale(c.Request.Context(), caller, tokenID, req.Price)
	writeResult(c, http.StatusOK, nil, err)
}

func (s *Service) BuyResaleHandler(c *gin.Context) {
	caller, tokenID, reqErr := callerAndID(c, "token_id")
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	ticket, err := s.engine.BuyResale(c.Request.Context(), caller, tokenID)
	writeResult(c, http.StatusOK, ticket, err)
}

func (s *Service) AssignOrganizerHandler(c *gin.Context) {
	caller, reqErr := callerFrom(c)
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	err := s.engine.AssignOrganizer(c.Request.Context(), caller, c.Param("identity"))
	writeResult(c, http.StatusOK, nil, err)
}

func (s *Service) RevokeOrganizerHandler(c *gin.Context) {
	caller, reqErr := callerFrom(c)
	if reqErr != nil {
		writeRequestError(c, reqErr)
		return
	}

	err := s.engine.RevokeOrganizer(c.Request.Context(), caller, c.Param("identity"))
	writeResult(c, http.StatusOK, nil, err)
}

func (s *Service) GetRoleHandler(c *gin.Context) {
	identity := c.Param("identity")
	role, err := s.engine.GetRole(c.Request.Context(), identity)
	if err != nil {
		writeRequestError(c, &requestError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to read role",
		})
		return
	}
	c.JSON(http.StatusOK, v1.RoleResponse{Identity: identity, Role: role})
}

// callerFrom reads the trusted identity and optional idempotency key headers.
func callerFrom(c *gin.Context) (Caller, *requestError) {
	identity := strings.TrimSpace(c.GetHeader(IdentityHeader))
	if identity == "" {
		return Caller{}, &requestError{
			statusCode: http.StatusUnauthorized,
			errorType:  httperr.HttpMissingIdentityError,
			message:    msgMissingIdentity,
		}
	}
	return Caller{
		Identity:       identity,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyHeader)),
	}, nil
}

func callerAndID(c *gin.Context, param string) (Caller, uint64, *requestError) {
	caller, reqErr := callerFrom(c)
	if reqErr != nil {
		return Caller{}, 0, reqErr
	}
	id, reqErr := pathID(c, param)
	if reqErr != nil {
		return Caller{}, 0, reqErr
	}
	return caller, id, nil
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, param string) (uint64, *requestError) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		return 0, &requestError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidPathError,
			message:    param + " must be a positive integer",
		}
	}
	return id, nil
}

// bindBody reads at most maxBodySizeBytes and decodes the JSON body into dst.
func (s *Service) bindBody(c *gin.Context, dst any) *requestError {
	maxBytes := int64(s.maxBodySizeBytes)
	bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1))
	if err != nil {
		slog.Error("[Ledger] Failed to read request body", "error", err)
		return &requestError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ledger] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &requestError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		slog.Warn("[Ledger] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &requestError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return nil
}

// writeResult writes the {ok}|{err} result shape of one engine call.
func writeResult(c *gin.Context, okStatus int, value any, err error) {
	if err != nil {
		kind := KindOf(err)
		message := "internal ledger error"
		var le *Error
		if kind != KindInternal && errors.As(err, &le) {
			message = le.Message
		}
		c.JSON(StatusFor(kind), v1.ErrResult(string(kind), message))
		return
	}
	c.JSON(okStatus, v1.OkResult(value))
}

func writeRequestError(c *gin.Context, err *requestError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
