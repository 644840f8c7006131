package approval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

// Approver is the slice of the upstream client the workflow needs.
type Approver interface {
	Approve(ctx context.Context, token, recordID string, req upstream.ApproveRequest) (*upstream.ApproveResponse, error)
}

// Request carries the bank reconciliation fields gating an approval.
type Request struct {
	RecordID string `json:"-" validate:"required"`
	BankDate string `json:"bankDate" validate:"required,datetime=2006-01-02"`
	BankUTR  string `json:"bankUtr" validate:"required"`
}

// Outcome is a confirmed approval ready to patch into local state.
type Outcome struct {
	RecordID   string `json:"recordId"`
	ApprovedBy string `json:"approved_by"`
	BankDate   string `json:"bankDate"`
	BankUTR    string `json:"bankUtr"`
}

// Workflow drives the one-way Pending to Approved transition. Local
// state commits only after the upstream confirms (pessimistic): the
// ledger behind the LMS can refuse an approval for business reasons
// such as a duplicate UTR, and a refused record must stay visibly
// pending.
type Workflow struct {
	client   Approver
	trail    *shared.ApprovalTrail
	audit    *shared.AuditLogger
	validate *validator.Validate
	logger   *slog.Logger
}

// NewWorkflow builds Workflow instance. Trail and audit are optional;
// when absent the console simply keeps no local history.
func NewWorkflow(client Approver, trail *shared.ApprovalTrail, audit *shared.AuditLogger, logger *slog.Logger) *Workflow {
	return &Workflow{
		client:   client,
		trail:    trail,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
	}
}

// Approve validates the bank fields and submits the transition. A
// validation failure aborts locally with no network call. Re-approving
// an already approved record is not guarded here; the upstream is the
// source of truth for rejecting duplicates.
func (wf *Workflow) Approve(ctx context.Context, token string, id shared.Identity, req Request) (*Outcome, error) {
	req.BankUTR = strings.TrimSpace(req.BankUTR)
	req.BankDate = strings.TrimSpace(req.BankDate)

	if err := wf.validate.Struct(req); err != nil {
		return nil, asValidationError(err)
	}

	resp, err := wf.client.Approve(ctx, token, req.RecordID, upstream.ApproveRequest{
		Partner:  id.Partner,
		BankDate: req.BankDate,
		BankUTR:  req.BankUTR,
	})
	if err != nil {
		wf.record(ctx, id, req, shared.ApprovalRejected, shared.UserSafeMessage(err))
		return nil, err
	}

	approvedBy := resp.ApprovedBy
	if approvedBy == "" {
		approvedBy = id.Actor
	}
	if approvedBy == "" {
		approvedBy = "back office"
	}

	wf.record(ctx, id, req, shared.ApprovalAccepted, "")
	if wf.audit != nil {
		if err := wf.audit.Record(ctx, shared.AuditLog{
			Partner:  id.Partner,
			Actor:    approvedBy,
			Action:   "approve",
			Entity:   "collection",
			EntityID: req.RecordID,
			Meta:     map[string]any{"bankDate": req.BankDate, "bankUtr": req.BankUTR},
		}); err != nil {
			wf.logger.Warn("audit approval", slog.Any("error", err))
		}
	}

	return &Outcome{
		RecordID:   req.RecordID,
		ApprovedBy: approvedBy,
		BankDate:   req.BankDate,
		BankUTR:    req.BankUTR,
	}, nil
}

func (wf *Workflow) record(ctx context.Context, id shared.Identity, req Request, outcome shared.ApprovalOutcome, reason string) {
	if wf.trail == nil {
		return
	}
	entry := shared.ApprovalTrailEntry{
		Partner:  id.Partner,
		RecordID: req.RecordID,
		Actor:    id.Actor,
		Outcome:  outcome,
		BankDate: req.BankDate,
		BankUTR:  req.BankUTR,
		Reason:   reason,
		At:       time.Now(),
	}
	if err := wf.trail.Record(ctx, entry); err != nil {
		wf.logger.Warn("record approval trail", slog.Any("error", err))
	}
}

func asValidationError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return shared.NewValidationError("", "invalid approval request")
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "BankDate":
		return shared.NewValidationError("bankDate", "a valid bank date is required")
	case "BankUTR":
		return shared.NewValidationError("bankUtr", "bank UTR is required")
	case "RecordID":
		return shared.NewValidationError("recordId", "record id is required")
	}
	return shared.NewValidationError(fe.Field(), "invalid value")
}
