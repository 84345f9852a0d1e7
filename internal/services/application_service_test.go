package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
)

// seedJob creates a job with one company admin and returns (job, adminID).
func seedJob(t *testing.T, db *gorm.DB) (*domain.Job, string) {
	t.Helper()
	ctx := context.Background()
	job, err := repo.CreateJob(ctx, db, "co-1", "Backend Engineer")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := repo.AddCompanyAdmin(ctx, db, "co-1", "admin-1"); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	return job, "admin-1"
}

func TestApply(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, _ := seedJob(t, db)
	svc := &ApplicationService{DB: db}

	app, err := svc.Apply(ctx, job.ID, "cand-1", "note", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != domain.StatusApplied {
		t.Fatalf("new application status = %q, want applied", app.Status)
	}

	if _, err := svc.Apply(ctx, job.ID, "cand-1", "", ""); !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("second apply: got %v, want ErrDuplicateApplication", err)
	}
	if _, err := svc.Apply(ctx, "no-such-job", "cand-1", "", ""); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("unknown job: got %v, want ErrJobNotFound", err)
	}
}

func TestTransition_RecruiterPath_NotifiesOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, admin := seedJob(t, db)
	rec := &recorder{}
	svc := &ApplicationService{DB: db, Pub: rec}

	app, err := svc.Apply(ctx, job.ID, "cand-1", "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	res, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if res.AlreadyInTarget {
		t.Fatalf("fresh transition reported AlreadyInTarget")
	}
	if res.Application.Status != domain.StatusShortlisted {
		t.Fatalf("status = %q, want shortlisted", res.Application.Status)
	}
	if res.Notification == nil {
		t.Fatalf("expected a notification for the shortlist commit")
	}
	if res.Notification.RecipientID != "cand-1" {
		t.Fatalf("notification recipient = %q, want cand-1", res.Notification.RecipientID)
	}
	if res.Notification.Type != domain.NoticeApplicationShortlisted {
		t.Fatalf("notification type = %q", res.Notification.Type)
	}
	if res.Notification.SourceKey != domain.SourceKeyFor(app.ID, domain.StatusShortlisted) {
		t.Fatalf("source key = %q", res.Notification.SourceKey)
	}
	if res.Notification.JobTitle != "Backend Engineer" {
		t.Fatalf("job title = %q", res.Notification.JobTitle)
	}
	if rec.count() != 1 || rec.last().ID != res.Notification.ID {
		t.Fatalf("expected exactly one publish of the committed notice")
	}
	if n := countNotifications(t, db, "cand-1"); n != 1 {
		t.Fatalf("notification rows = %d, want 1", n)
	}
}

func TestTransition_RetryIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, admin := seedJob(t, db)
	rec := &recorder{}
	svc := &ApplicationService{DB: db, Pub: rec}

	app, _ := svc.Apply(ctx, job.ID, "cand-1", "", "")
	if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// Same request again: success, no new commit, no new notification.
	res, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !res.AlreadyInTarget {
		t.Fatalf("retry should report AlreadyInTarget")
	}
	if res.Notification != nil {
		t.Fatalf("retry must not synthesize a notification")
	}
	if rec.count() != 1 {
		t.Fatalf("publishes = %d, want 1", rec.count())
	}
	if n := countNotifications(t, db, "cand-1"); n != 1 {
		t.Fatalf("notification rows = %d, want 1", n)
	}
}

func TestTransition_SourceKeyDeduplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, admin := seedJob(t, db)
	rec := &recorder{}
	svc := &ApplicationService{DB: db, Pub: rec}

	app, _ := svc.Apply(ctx, job.ID, "cand-1", "", "")
	if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// Force the row back to applied behind the service's back, then replay
	// the same transition. The commit succeeds again but the notice dedup
	// key already exists, so no second row and no second publish.
	if _, err := repo.UpdateApplicationStatusCAS(ctx, db, app.ID, domain.StatusShortlisted, domain.StatusApplied); err != nil {
		t.Fatalf("reset status: %v", err)
	}
	res, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin)
	if err != nil {
		t.Fatalf("replayed transition: %v", err)
	}
	if res.Notification != nil {
		t.Fatalf("replay must not report a new notification")
	}
	if rec.count() != 1 {
		t.Fatalf("publishes = %d, want 1", rec.count())
	}
	if n := countNotifications(t, db, "cand-1"); n != 1 {
		t.Fatalf("notification rows = %d, want 1", n)
	}
}

func TestTransition_Unauthorized(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, _ := seedJob(t, db)
	svc := &ApplicationService{DB: db}

	app, _ := svc.Apply(ctx, job.ID, "cand-1", "", "")

	// A random user is not a company admin.
	if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, "stranger"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger shortlist: got %v, want ErrUnauthorized", err)
	}
	// Only the applicant may withdraw.
	if _, err := svc.Transition(ctx, app.ID, domain.StatusWithdrawn, "admin-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("admin withdraw: got %v, want ErrUnauthorized", err)
	}

	got, _ := repo.GetApplication(ctx, db, app.ID)
	if got.Status != domain.StatusApplied {
		t.Fatalf("failed transition must leave status untouched, got %q", got.Status)
	}
	if n := countNotifications(t, db, "cand-1"); n != 0 {
		t.Fatalf("failed transition produced %d notifications", n)
	}
}

func TestTransition_Illegal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, admin := seedJob(t, db)
	svc := &ApplicationService{DB: db}

	app, _ := svc.Apply(ctx, job.ID, "cand-1", "", "")

	// applied -> offered skips the machine.
	if _, err := svc.Transition(ctx, app.ID, domain.StatusOffered, admin); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("applied->offered: got %v, want ErrIllegalTransition", err)
	}
	// Unknown target is rejected before touching the row.
	if _, err := svc.Transition(ctx, app.ID, domain.ApplicationStatus("archived"), admin); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("unknown target: got %v, want ErrIllegalTransition", err)
	}
	// Terminal states have no outgoing edges.
	if _, err := svc.Transition(ctx, app.ID, domain.StatusRejected, admin); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("rejected->shortlisted: got %v, want ErrIllegalTransition", err)
	}
}

func TestTransition_ConcurrentWinner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, admin := seedJob(t, db)
	rec := &recorder{}
	svc := &ApplicationService{DB: db, Pub: rec}

	// sneak moves the row between the service's read and its conditional
	// write, standing in for a racing request that commits first. It runs on
	// the transaction's own connection, so the conditional write then
	// matches zero rows and the loser re-reads.
	var sneak func(tx *gorm.DB)
	err := db.Callback().Update().Before("gorm:update").Register("test_concurrent_winner", func(tx *gorm.DB) {
		if sneak == nil || tx.Statement.Table != "applications" {
			return
		}
		fn := sneak
		sneak = nil
		fn(tx)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	t.Run("winner_reached_same_target", func(t *testing.T) {
		app, _ := svc.Apply(ctx, job.ID, "cand-1", "", "")
		sneak = func(tx *gorm.DB) {
			tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE applications SET status = ? WHERE id = ?", string(domain.StatusShortlisted), app.ID)
		}

		res, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin)
		if err != nil {
			t.Fatalf("losing request: %v", err)
		}
		if !res.AlreadyInTarget {
			t.Fatalf("loser must report AlreadyInTarget when the winner reached its target")
		}
		if res.Notification != nil || rec.count() != 0 {
			t.Fatalf("loser must not synthesize a second notification")
		}
		got, _ := repo.GetApplication(ctx, db, app.ID)
		if got.Status != domain.StatusShortlisted {
			t.Fatalf("status = %q, want shortlisted", got.Status)
		}
	})

	t.Run("winner_moved_elsewhere", func(t *testing.T) {
		app, _ := svc.Apply(ctx, job.ID, "cand-2", "", "")
		sneak = func(tx *gorm.DB) {
			tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE applications SET status = ? WHERE id = ?", string(domain.StatusRejected), app.ID)
		}

		if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin); !errors.Is(err, ErrIllegalTransition) {
			t.Fatalf("loser against a diverged row: got %v, want ErrIllegalTransition", err)
		}
	})
}

func TestTransition_NoopRequiresAuthority(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, admin := seedJob(t, db)
	svc := &ApplicationService{DB: db}

	app, _ := svc.Apply(ctx, job.ID, "cand-1", "", "")
	if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, admin); err != nil {
		t.Fatalf("shortlist: %v", err)
	}

	// A stranger probing the current status must get the same answer as for
	// any other target, never the idempotent success.
	if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, "stranger"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger probing current status: got %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Transition(ctx, app.ID, domain.StatusOffered, "stranger"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger probing other status: got %v, want ErrUnauthorized", err)
	}
	// The applicant has no authority over company-side targets either.
	if _, err := svc.Transition(ctx, app.ID, domain.StatusShortlisted, "cand-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("applicant probing current status: got %v, want ErrUnauthorized", err)
	}
}

func TestTransition_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := &ApplicationService{DB: db}

	if _, err := svc.Transition(context.Background(), "nope", domain.StatusShortlisted, "admin-1"); !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("got %v, want ErrApplicationNotFound", err)
	}
}

func TestWithdraw(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	job, _ := seedJob(t, db)
	rec := &recorder{}
	svc := &ApplicationService{DB: db, Pub: rec}

	app, _ := svc.Apply(ctx, job.ID, "cand-1", "", "")

	res, err := svc.Withdraw(ctx, app.ID, "cand-1")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Application.Status != domain.StatusWithdrawn {
		t.Fatalf("status = %q, want withdrawn", res.Application.Status)
	}
	// The applicant initiated this; there is no notice-worthy audience.
	if res.Notification != nil || rec.count() != 0 {
		t.Fatalf("withdrawal must not notify")
	}

	// Withdrawn is terminal.
	if _, err := svc.Withdraw(ctx, app.ID, "cand-1"); err != nil {
		t.Fatalf("repeat withdraw should be idempotent, got %v", err)
	}
}
