// Application HTTP handlers.
//
// This file exposes REST endpoints for the application lifecycle:
//   - POST   /applications              (apply to a job)
//   - POST   /applications/{id}/status  (company-side status transition)
//   - DELETE /applications/{id}         (applicant withdrawal)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results and sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/http/middleware"
	"github.com/careernet/go-career-backend/internal/repo"
	"github.com/careernet/go-career-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ApplicationService defines the application lifecycle operations consumed
// by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ApplicationService interface {
	// Apply creates an application for applicantID against jobID.
	Apply(ctx context.Context, jobID, applicantID, coverNote, resumeURL string) (*domain.Application, error)
	// Transition moves an application to target on behalf of actorID.
	Transition(ctx context.Context, appID string, target domain.ApplicationStatus, actorID string) (*services.TransitionResult, error)
	// Withdraw is the applicant-side terminal transition.
	Withdraw(ctx context.Context, appID, actorID string) (*services.TransitionResult, error)
}

// NotificationService defines notification retrieval and read-marking
// operations.
type NotificationService interface {
	// Page returns notifications strictly older than the watermark,
	// newest first, and whether more remain.
	Page(ctx context.Context, recipientID string, before *repo.Watermark, pageSize int) ([]domain.Notification, bool, error)
	// MarkAllRead flips every unread notification and returns the count.
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	// Unread returns the recipient's unread count.
	Unread(ctx context.Context, recipientID string) (int64, error)
}

// ConnectionService defines the connection-request lifecycle consumed by
// HTTP handlers.
type ConnectionService interface {
	Request(ctx context.Context, requesterID, addresseeID, requesterName, visibility string) (*domain.Connection, error)
	Accept(ctx context.Context, connID, actorID, actorName string) (*domain.Connection, error)
	Reject(ctx context.Context, connID, actorID string) error
	Cancel(ctx context.Context, connID, actorID string) error
	Block(ctx context.Context, actorID, targetID string) error
	List(ctx context.Context, userID string) ([]domain.Connection, error)
}

// InteractionStore defines the post-interaction writes (save, hide)
// consumed by HTTP handlers. mutation.DBStore satisfies it.
type InteractionStore interface {
	SavePost(ctx context.Context, userID, postID string) error
	UnsavePost(ctx context.Context, userID, postID string) error
	HidePost(ctx context.Context, userID, postID string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for applications, notifications,
// connections, and post interactions. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	appSvc  ApplicationService
	noteSvc NotificationService
	connSvc ConnectionService
	posts   InteractionStore

	db          *gorm.DB
	idemTTL     time.Duration
	pageDefault int
	pageMax     int
}

// Options carries configuration-sourced transport tunables.
type Options struct {
	// DB backs idempotency record writes. Nil disables recording.
	DB *gorm.DB
	// IdempotencyTTL bounds how long a recorded mutation stays replayable.
	// Values <= 0 default to 24h.
	IdempotencyTTL time.Duration
	// PageSizeDefault and PageSizeMax bound list page sizes. Zero values
	// default to 20 and 100.
	PageSizeDefault int
	PageSizeMax     int
}

// New constructs and returns a Handlers instance bound to the given services.
func New(appSvc ApplicationService, noteSvc NotificationService, connSvc ConnectionService, posts InteractionStore, opts Options) *Handlers {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if opts.PageSizeDefault < 1 {
		opts.PageSizeDefault = 20
	}
	if opts.PageSizeMax < opts.PageSizeDefault {
		opts.PageSizeMax = 100
	}
	return &Handlers{
		appSvc:      appSvc,
		noteSvc:     noteSvc,
		connSvc:     connSvc,
		posts:       posts,
		db:          opts.DB,
		idemTTL:     opts.IdempotencyTTL,
		pageDefault: opts.PageSizeDefault,
		pageMax:     opts.PageSizeMax,
	}
}

// recordIdempotency persists the outcome of a keyed unsafe request so a
// retry with the same Idempotency-Key is detected as a replay. Best effort:
// failures are ignored, a concurrent retry racing the insert included.
func (h *Handlers) recordIdempotency(c *gin.Context, entityID string, status int) {
	if h.db == nil {
		return
	}
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return
	}
	_, _ = repo.CreateIdempotency(c.Request.Context(), h.db, userID(c), entityID, key, status, h.idemTTL)
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateApplicationRequest is the JSON payload for applying to a job.
type CreateApplicationRequest struct {
	// JobID identifies the opening being applied to.
	JobID string `json:"job_id" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// CoverNote optionally accompanies the application.
	CoverNote string `json:"cover_note" example:"I led a team of five on a similar stack."`
	// ResumeURL references an already-uploaded resume; never inspected here.
	ResumeURL string `json:"resume_url" example:"https://cdn.example.com/r/abc.pdf"`
}

// TransitionRequest is the JSON payload for a status change.
type TransitionRequest struct {
	// Status is the requested target state.
	Status string `json:"status" binding:"required" example:"shortlisted"`
}

// TransitionResponse reports the application after a transition request.
type TransitionResponse struct {
	Application *domain.Application `json:"application"`
	// AlreadyInTarget is true when the request was an idempotent no-op.
	AlreadyInTarget bool `json:"already_in_target"`
}

//
// Handlers
//

// CreateApplication godoc
// @ID          createApplication
// @Summary     Apply to a job
// @Description Creates an application for the current user against a job opening.
// @Tags        Applications
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateApplicationRequest  true  "Application payload"
//
// @Success     201  {object}  domain.Application
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Job not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already applied"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /applications [post]
func (h *Handlers) CreateApplication(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	app, err := h.appSvc.Apply(c.Request.Context(), strings.TrimSpace(req.JobID), userID(c), req.CoverNote, req.ResumeURL)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, app)
	case errors.Is(err, services.ErrJobNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "job not found")
	case errors.Is(err, services.ErrDuplicateApplication):
		fail(c, http.StatusConflict, ErrCodeConflict, "application already exists for this job")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
	}
}

// ChangeApplicationStatus godoc
// @ID          changeApplicationStatus
// @Summary     Transition an application
// @Description Moves an application along the status state machine. Requesting the
// @Description current status is an idempotent success. Company-side targets require
// @Description the caller to administer the job's company.
// @Tags        Applications
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(admin42)
// @Param       id         path    string  true  "Application ID (UUID)"  format(uuid)
// @Param       body       body    handlers.TransitionRequest  true  "Target status"
//
// @Success     200  {object}  handlers.TransitionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Actor lacks authority"
// @Failure     404  {object}  handlers.ErrorResponse  "Application not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Illegal transition"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /applications/{id}/status [post]
func (h *Handlers) ChangeApplicationStatus(c *gin.Context) {
	appID := c.Param("id")
	if _, err := uuid.Parse(appID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "application id must be a UUID")
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	target := domain.ApplicationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !target.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status "+req.Status)
		return
	}

	res, err := h.appSvc.Transition(c.Request.Context(), appID, target, userID(c))
	h.writeTransition(c, res, err)
}

// WithdrawApplication godoc
// @ID          withdrawApplication
// @Summary     Withdraw an application
// @Description Applicant-side terminal transition. Only the applicant may withdraw,
// @Description and only from a non-terminal status.
// @Tags        Applications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Application ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.TransitionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the applicant"
// @Failure     404  {object}  handlers.ErrorResponse  "Application not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Illegal transition"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /applications/{id} [delete]
func (h *Handlers) WithdrawApplication(c *gin.Context) {
	appID := c.Param("id")
	if _, err := uuid.Parse(appID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "application id must be a UUID")
		return
	}

	res, err := h.appSvc.Withdraw(c.Request.Context(), appID, userID(c))
	h.writeTransition(c, res, err)
}

// writeTransition maps a transition outcome onto the shared response shape.
func (h *Handlers) writeTransition(c *gin.Context, res *services.TransitionResult, err error) {
	switch {
	case err == nil:
		h.recordIdempotency(c, c.Param("id"), http.StatusOK)
		ok(c, http.StatusOK, TransitionResponse{
			Application:     res.Application,
			AlreadyInTarget: res.AlreadyInTarget,
		})
	case errors.Is(err, services.ErrApplicationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "application not found")
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "actor lacks authority for this transition")
	case errors.Is(err, services.ErrIllegalTransition):
		fail(c, http.StatusUnprocessableEntity, ErrCodeIllegalTransition, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
