package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// completedJob drives a job to completed with the given contractor selected.
func (f *fixture) completedJob(t *testing.T) (*models.Job, models.Actor) {
	t.Helper()
	ctx := context.Background()
	job, cs := f.shortlisted(t, 1)
	if _, err := f.lifecycle.StartWithContractor(ctx, f.landowner, job.ID, cs[0].ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := f.lifecycle.Transition(ctx, f.landowner, job.ID, models.JobStatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return done, cs[0]
}

func TestPaymentSequence(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job, c := f.completedJob(t)

	p, err := f.escrow.Create(ctx, f.landowner, job.ID, 5000, "upi")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != models.PaymentStatusPending || p.ContractorID != c.ID || p.LandownerID != f.landowner.ID {
		t.Fatalf("payment = %+v", p)
	}

	if _, err := f.escrow.Release(ctx, f.admin, p.ID, "TX1", ""); !errors.Is(err, ErrInvalidPaymentState) {
		t.Fatalf("release before approve: got %v, want ErrInvalidPaymentState", err)
	}
	if _, err := f.escrow.Approve(ctx, f.landowner, p.ID, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("landowner approve: got %v, want ErrUnauthorized", err)
	}

	a1, err := f.escrow.Approve(ctx, f.admin, p.ID, "checked")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	a2, err := f.escrow.Approve(ctx, f.admin, p.ID, "again")
	if err != nil {
		t.Fatalf("approve twice: %v", err)
	}
	if a1.Status != models.PaymentStatusApproved || a2.Status != models.PaymentStatusApproved || a2.ApprovalNotes != "checked" {
		t.Errorf("approve not idempotent: %+v / %+v", a1, a2)
	}

	r1, err := f.escrow.Release(ctx, f.admin, p.ID, "TX1", "paid out")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	r2, err := f.escrow.Release(ctx, f.admin, p.ID, "TX2", "")
	if err != nil {
		t.Fatalf("release twice: %v", err)
	}
	if r1.ReceiptNumber == "" || r1.ReceiptNumber != r2.ReceiptNumber {
		t.Errorf("receipt numbers differ: %q vs %q", r1.ReceiptNumber, r2.ReceiptNumber)
	}
	if !strings.HasPrefix(r1.ReceiptNumber, "RCPT-") || r2.TransactionRef != "TX1" {
		t.Errorf("released payment = %+v", r2)
	}

	stored := f.store.job(job.ID)
	if !stored.IsPaid || stored.PaymentID == nil || *stored.PaymentID != p.ID {
		t.Errorf("job after release = %+v", stored)
	}
	if ActionRequired(&stored) != ActionFeedbackPending {
		t.Errorf("action required = %q", ActionRequired(&stored))
	}

	if _, err := f.escrow.Refund(ctx, f.admin, p.ID, "late"); !errors.Is(err, ErrInvalidPaymentState) {
		t.Errorf("refund released: got %v, want ErrInvalidPaymentState", err)
	}
	late, err := f.escrow.Approve(ctx, f.admin, p.ID, "late")
	if err != nil {
		t.Errorf("approve released: %v", err)
	} else if late.Status != models.PaymentStatusCompleted || late.ApprovalNotes != "checked" {
		t.Errorf("approve released changed payment: %+v", late)
	}
	if _, err := f.escrow.Create(ctx, f.landowner, job.ID, 100, ""); !errors.Is(err, ErrInvalidPaymentState) {
		t.Errorf("pay a paid job: got %v, want ErrInvalidPaymentState", err)
	}

	inbox, err := f.offers.List(ctx, c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var released int
	for _, n := range inbox {
		if n.Type == models.NotificationPaymentReleased {
			released++
		}
	}
	if released != 1 {
		t.Errorf("payment_released notifications = %d, want 1", released)
	}
}

func TestCreatePayment_Guards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	open := f.openJob("clearing")
	if _, err := f.escrow.Create(ctx, f.landowner, open.ID, 5000, ""); !errors.Is(err, ErrInvalidPaymentState) {
		t.Errorf("open job: got %v, want ErrInvalidPaymentState", err)
	}

	job, c := f.completedJob(t)
	if _, err := f.escrow.Create(ctx, c, job.ID, 5000, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("contractor create: got %v, want ErrUnauthorized", err)
	}
	if _, err := f.escrow.Create(ctx, c, job.ID, -1, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("contractor create with bad amount: got %v, want ErrUnauthorized", err)
	}
	if _, err := f.escrow.Create(ctx, f.landowner, job.ID, 0, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero amount: got %v, want ErrInvalidInput", err)
	}
	if _, err := f.escrow.Create(ctx, f.landowner, uuid.New(), 5000, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown job: got %v, want ErrNotFound", err)
	}
	if _, err := f.escrow.Create(ctx, f.landowner, job.ID, 5000, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.escrow.Create(ctx, f.landowner, job.ID, 5000, ""); !errors.Is(err, ErrPaymentAlreadyInProgress) {
		t.Errorf("second payment: got %v, want ErrPaymentAlreadyInProgress", err)
	}
}

func TestGetPayment_ScopedToParties(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job, c := f.completedJob(t)
	p, err := f.escrow.Create(ctx, f.landowner, job.ID, 5000, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for name, actor := range map[string]models.Actor{"landowner": f.landowner, "contractor": c, "admin": f.admin} {
		got, err := f.escrow.Get(ctx, actor, p.ID)
		if err != nil || got.ID != p.ID {
			t.Errorf("%s: got %+v, %v", name, got, err)
		}
	}
	other := f.addContractor("clearing", 50)
	if _, err := f.escrow.Get(ctx, other, p.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("other contractor: got %v, want ErrUnauthorized", err)
	}
	if _, err := f.escrow.Get(ctx, f.admin, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown payment: got %v, want ErrNotFound", err)
	}
}

func TestRefund(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job, _ := f.completedJob(t)

	p, err := f.escrow.Create(ctx, f.landowner, job.ID, 2500, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.escrow.Refund(ctx, f.admin, p.ID, "dispute"); !errors.Is(err, ErrInvalidPaymentState) {
		t.Errorf("refund pending: got %v, want ErrInvalidPaymentState", err)
	}
	if _, err := f.escrow.Approve(ctx, f.admin, p.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	r, err := f.escrow.Refund(ctx, f.admin, p.ID, "dispute")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if r.Status != models.PaymentStatusRefunded || r.RefundedAt == nil || r.RefundReason != "dispute" {
		t.Errorf("refunded payment = %+v", r)
	}
	if _, err := f.escrow.Refund(ctx, f.admin, p.ID, "again"); err != nil {
		t.Errorf("refund twice: %v", err)
	}
	if _, err := f.escrow.Release(ctx, f.admin, p.ID, "", ""); !errors.Is(err, ErrInvalidPaymentState) {
		t.Errorf("release refunded: got %v, want ErrInvalidPaymentState", err)
	}
	if _, err := f.escrow.Approve(ctx, f.admin, p.ID, ""); !errors.Is(err, ErrInvalidPaymentState) {
		t.Errorf("approve refunded: got %v, want ErrInvalidPaymentState", err)
	}
	if f.store.job(job.ID).IsPaid {
		t.Error("refunded job marked paid")
	}

	// A refunded payment no longer blocks a new one.
	if _, err := f.escrow.Create(ctx, f.landowner, job.ID, 2500, ""); err != nil {
		t.Errorf("create after refund: %v", err)
	}
}

func TestReceiptNumber(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	if got, want := ReceiptNumber(id), "RCPT-0F8FAD5BD9CB469FA16570867728950E"; got != want {
		t.Errorf("ReceiptNumber = %q, want %q", got, want)
	}
}
