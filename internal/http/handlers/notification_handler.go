// Notification HTTP handlers.
//
// Pagination is keyset-based: callers pass the (created_at, id) watermark of
// the oldest item they hold and receive strictly older rows, so pages stay
// stable while new notifications keep arriving at the head.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
	"github.com/careernet/go-career-backend/internal/utils"
)

// ListNotificationsResponse wraps one page of notifications.
type ListNotificationsResponse struct {
	Notifications []domain.NotificationEnvelope `json:"notifications"`
	// HasMore is false once a fetch returned fewer than page_size rows.
	HasMore bool `json:"has_more"`
}

// UnreadCountResponse carries the recipient's unread total.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse reports how many rows were flipped.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List notifications (keyset-paginated)
// @Description Returns the newest notifications for the current user, or the rows
// @Description strictly older than the (before_at, before_id) watermark when given.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"            example(user123)
// @Param       before_at  query   string  false "Watermark timestamp (RFC 3339)"   example(2025-06-01T12:00:00Z)
// @Param       before_id  query   string  false "Watermark notification id"
// @Param       page_size  query   int     false "Items per page"                   minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed watermark"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	pageSize := utils.ClampPageSize(c.Query("page_size"), h.pageDefault, h.pageMax)

	var before *repo.Watermark
	if at := strings.TrimSpace(c.Query("before_at")); at != "" {
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "before_at must be RFC 3339")
			return
		}
		id := strings.TrimSpace(c.Query("before_id"))
		if id == "" {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "before_id required with before_at")
			return
		}
		before = &repo.Watermark{CreatedAt: ts, ID: id}
	}

	items, hasMore, err := h.noteSvc.Page(c.Request.Context(), userID(c), before, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	out := make([]domain.NotificationEnvelope, 0, len(items))
	for i := range items {
		out = append(out, items[i].Envelope())
	}
	ok(c, http.StatusOK, ListNotificationsResponse{Notifications: out, HasMore: hasMore})
}

// MarkAllNotificationsRead godoc
// @ID          markAllNotificationsRead
// @Summary     Mark all notifications read
// @Description Flips every unread notification of the current user in one bulk update.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  handlers.MarkAllReadResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/read-all [post]
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.noteSvc.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, MarkAllReadResponse{Updated: n})
}

// UnreadNotificationCount godoc
// @ID          unreadNotificationCount
// @Summary     Unread notification count
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  handlers.UnreadCountResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/unread-count [get]
func (h *Handlers) UnreadNotificationCount(c *gin.Context) {
	n, err := h.noteSvc.Unread(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{Unread: n})
}
