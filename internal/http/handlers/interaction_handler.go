// Post-interaction HTTP handlers: save, unsave, hide.
//
// These are the durable halves of the optimistic feed actions. The session
// applies its local delta first and calls these endpoints to commit; a
// failure here triggers the session-side rollback.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careernet/go-career-backend/internal/repo"
)

// SavePost godoc
// @ID          savePost
// @Summary     Save a post
// @Description Records a saved-post row for the current user. Saving twice conflicts.
// @Tags        Posts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Post ID"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     409  {object} handlers.ErrorResponse "Already saved"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /posts/{id}/save [post]
func (h *Handlers) SavePost(c *gin.Context) {
	postID := strings.TrimSpace(c.Param("id"))
	if postID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id required")
		return
	}
	err := h.posts.SavePost(c.Request.Context(), userID(c), postID)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, repo.ErrDuplicate):
		fail(c, http.StatusConflict, ErrCodeConflict, "post already saved")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// UnsavePost godoc
// @ID          unsavePost
// @Summary     Remove a saved post
// @Tags        Posts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Post ID"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Not saved"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /posts/{id}/save [delete]
func (h *Handlers) UnsavePost(c *gin.Context) {
	postID := strings.TrimSpace(c.Param("id"))
	if postID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id required")
		return
	}
	err := h.posts.UnsavePost(c.Request.Context(), userID(c), postID)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, repo.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "post is not saved")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// HidePost godoc
// @ID          hidePost
// @Summary     Hide a post from the current user's feed
// @Description Idempotent: hiding an already hidden post succeeds.
// @Tags        Posts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Post ID"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /posts/{id}/hide [post]
func (h *Handlers) HidePost(c *gin.Context) {
	postID := strings.TrimSpace(c.Param("id"))
	if postID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id required")
		return
	}
	if err := h.posts.HidePost(c.Request.Context(), userID(c), postID); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
