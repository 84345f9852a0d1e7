// Connection HTTP handlers.
//
// A connection edge is unique per unordered user pair. Accepting is reserved
// for the addressee; rejecting or cancelling a pending request frees the pair
// for a later attempt; blocking terminalizes any existing edge silently.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careernet/go-career-backend/internal/services"
)

// CreateConnectionRequest is the JSON payload for requesting a connection.
type CreateConnectionRequest struct {
	// AddresseeID is the user being invited.
	AddresseeID string `json:"addressee_id" binding:"required" example:"user456"`
	// RequesterName is shown in the addressee's notification.
	RequesterName string `json:"requester_name" example:"Dana Veras"`
	// Visibility optionally scopes who can see the edge; persisted only
	// when the schema carries the column.
	Visibility string `json:"visibility" example:"connections"`
}

// AcceptConnectionRequest carries the accepting user's display name for the
// requester's notification.
type AcceptConnectionRequest struct {
	ActorName string `json:"actor_name" example:"Sam Okafor"`
}

// CreateConnection godoc
// @ID          createConnection
// @Summary     Request a connection
// @Description Creates a pending connection edge from the current user to the addressee.
// @Tags        Connections
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateConnectionRequest  true  "Connection payload"
//
// @Success     201  {object}  domain.Connection
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Blocked either way"
// @Failure     409  {object}  handlers.ErrorResponse  "Edge already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connections [post]
func (h *Handlers) CreateConnection(c *gin.Context) {
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	conn, err := h.connSvc.Request(c.Request.Context(), userID(c), strings.TrimSpace(req.AddresseeID), req.RequesterName, req.Visibility)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, conn)
	case errors.Is(err, services.ErrSelfConnection):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot connect to yourself")
	case errors.Is(err, services.ErrBlocked):
		fail(c, http.StatusForbidden, ErrCodeBlocked, "connection not possible")
	case errors.Is(err, services.ErrConnectionExists):
		fail(c, http.StatusConflict, ErrCodeConflict, "an edge already exists for this pair")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
	}
}

// AcceptConnection godoc
// @ID          acceptConnection
// @Summary     Accept a connection request
// @Description Addressee-only. Accepting an already accepted edge is an idempotent success.
// @Tags        Connections
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user456)
// @Param       id         path    string  true  "Connection ID (UUID)"   format(uuid)
// @Param       body       body    handlers.AcceptConnectionRequest  false  "Actor name"
//
// @Success     200  {object}  domain.Connection
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the addressee"
// @Failure     404  {object}  handlers.ErrorResponse  "Connection not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connections/{id}/accept [post]
func (h *Handlers) AcceptConnection(c *gin.Context) {
	connID := c.Param("id")
	if _, err := uuid.Parse(connID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "connection id must be a UUID")
		return
	}
	var req AcceptConnectionRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	conn, err := h.connSvc.Accept(c.Request.Context(), connID, userID(c), req.ActorName)
	switch {
	case err == nil:
		h.recordIdempotency(c, connID, http.StatusOK)
		ok(c, http.StatusOK, conn)
	case errors.Is(err, services.ErrConnectionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "connection not found")
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the addressee may accept")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// RejectConnection godoc
// @ID          rejectConnection
// @Summary     Reject a pending connection request
// @Description Addressee-only. Removes the pending edge so the pair is free again.
// @Tags        Connections
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user456)
// @Param       id         path    string  true  "Connection ID (UUID)"   format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the addressee"
// @Failure     404  {object} handlers.ErrorResponse "Connection not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /connections/{id}/reject [post]
func (h *Handlers) RejectConnection(c *gin.Context) {
	h.endConnection(c, h.connSvc.Reject)
}

// CancelConnection godoc
// @ID          cancelConnection
// @Summary     Cancel a pending connection request
// @Description Requester-only. Removes the pending edge so the pair is free again.
// @Tags        Connections
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Connection ID (UUID)"   format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the requester"
// @Failure     404  {object} handlers.ErrorResponse "Connection not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /connections/{id} [delete]
func (h *Handlers) CancelConnection(c *gin.Context) {
	h.endConnection(c, h.connSvc.Cancel)
}

// ListConnections godoc
// @ID          listConnections
// @Summary     List the current user's connection edges
// @Tags        Connections
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {array}   domain.Connection
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connections [get]
func (h *Handlers) ListConnections(c *gin.Context) {
	conns, err := h.connSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, conns)
}

// BlockUser godoc
// @ID          blockUser
// @Summary     Block a user
// @Description Records the block and terminalizes any existing connection edge.
// @Description The blocked user is not notified.
// @Tags        Connections
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "User ID to block"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/block [post]
func (h *Handlers) BlockUser(c *gin.Context) {
	targetID := strings.TrimSpace(c.Param("id"))
	uid := userID(c)
	if targetID == "" || targetID == uid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid block target")
		return
	}
	if err := h.connSvc.Block(c.Request.Context(), uid, targetID); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// endConnection handles the shared reject/cancel shape.
func (h *Handlers) endConnection(c *gin.Context, op func(ctx context.Context, connID, actorID string) error) {
	connID := c.Param("id")
	if _, err := uuid.Parse(connID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "connection id must be a UUID")
		return
	}
	err := op(c.Request.Context(), connID, userID(c))
	switch {
	case err == nil:
		h.recordIdempotency(c, connID, http.StatusNoContent)
		noContent(c)
	case errors.Is(err, services.ErrConnectionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "connection not found")
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "actor may not end this request")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
