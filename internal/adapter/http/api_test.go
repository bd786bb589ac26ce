package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	notifyadp "microlend-backend/internal/adapter/notify"
	"microlend-backend/internal/domain/errs"
	appuc "microlend-backend/internal/usecase/application"
	loanuc "microlend-backend/internal/usecase/loan"
	payuc "microlend-backend/internal/usecase/payment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var (
	staffID    = "5aa1f0c2e7b84d6a9c3e1f2a3b4c5d6e"
	borrowerID = "b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0"
)

// ---- function-backed fakes ----

type fakeApps struct {
	SubmitFn   func(ctx context.Context, in appuc.SubmitInput) (*appuc.ApplicationDTO, error)
	EvaluateFn func(ctx context.Context, in appuc.EvaluateInput) (*appuc.EvaluationDTO, error)
	DeleteFn   func(ctx context.Context, applicationID, actorID string) error
}

func (f *fakeApps) Submit(ctx context.Context, in appuc.SubmitInput) (*appuc.ApplicationDTO, error) {
	return f.SubmitFn(ctx, in)
}
func (f *fakeApps) Evaluate(ctx context.Context, in appuc.EvaluateInput) (*appuc.EvaluationDTO, error) {
	return f.EvaluateFn(ctx, in)
}
func (f *fakeApps) Delete(ctx context.Context, applicationID, actorID string) error {
	return f.DeleteFn(ctx, applicationID, actorID)
}

type fakeLoans struct {
	GetFn       func(ctx context.Context, loanID, actorID string) (*loanuc.LoanDTO, error)
	ReconcileFn func(ctx context.Context, loanID, actorID string) (*loanuc.LoanDTO, error)
	ListFn      func(ctx context.Context, borrowerID, actorID string) ([]loanuc.LoanDTO, error)
	CreateFn    func(ctx context.Context, applicationID, actorID string) (*loanuc.LoanDTO, error)
}

func (f *fakeLoans) Get(ctx context.Context, loanID, actorID string) (*loanuc.LoanDTO, error) {
	return f.GetFn(ctx, loanID, actorID)
}
func (f *fakeLoans) Reconcile(ctx context.Context, loanID, actorID string) (*loanuc.LoanDTO, error) {
	return f.ReconcileFn(ctx, loanID, actorID)
}
func (f *fakeLoans) ListByBorrower(ctx context.Context, borrowerID, actorID string) ([]loanuc.LoanDTO, error) {
	return f.ListFn(ctx, borrowerID, actorID)
}
func (f *fakeLoans) CreateFromApprovedApplication(ctx context.Context, applicationID, actorID string) (*loanuc.LoanDTO, error) {
	return f.CreateFn(ctx, applicationID, actorID)
}

type fakePayments struct {
	SubmitFn  func(ctx context.Context, in payuc.SubmitInput) (*payuc.SubmitDTO, error)
	ApproveFn func(ctx context.Context, paymentID, approverID string) (*payuc.ApprovalDTO, error)
	RejectFn  func(ctx context.Context, paymentID, rejecterID, reason string) (*payuc.PaymentDTO, error)
	ListFn    func(ctx context.Context, loanID, actorID string) ([]payuc.PaymentDTO, error)
}

func (f *fakePayments) Submit(ctx context.Context, in payuc.SubmitInput) (*payuc.SubmitDTO, error) {
	return f.SubmitFn(ctx, in)
}
func (f *fakePayments) Approve(ctx context.Context, paymentID, approverID string) (*payuc.ApprovalDTO, error) {
	return f.ApproveFn(ctx, paymentID, approverID)
}
func (f *fakePayments) Reject(ctx context.Context, paymentID, rejecterID, reason string) (*payuc.PaymentDTO, error) {
	return f.RejectFn(ctx, paymentID, rejecterID, reason)
}
func (f *fakePayments) ListByLoan(ctx context.Context, loanID, actorID string) ([]payuc.PaymentDTO, error) {
	return f.ListFn(ctx, loanID, actorID)
}

type fakeInbox struct {
	UnreadFn func(ctx context.Context, userID string, limit int) ([]notifyadp.Notification, error)
}

func (f *fakeInbox) Unread(ctx context.Context, userID string, limit int) ([]notifyadp.Notification, error) {
	if f.UnreadFn == nil {
		return nil, nil
	}
	return f.UnreadFn(ctx, userID, limit)
}

// ---- helpers ----

func newAPI(apps *fakeApps, loans *fakeLoans, pays *fakePayments) *echo.Echo {
	return newAPIWithInbox(apps, loans, pays, &fakeInbox{})
}

func newAPIWithInbox(apps *fakeApps, loans *fakeLoans, pays *fakePayments, inbox *fakeInbox) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	Register(e, Handlers{
		Health:        NewHandler(),
		Applications:  NewApplicationHandler(apps, loans),
		Loans:         NewLoanHandler(loans),
		Payments:      NewPaymentHandler(pays),
		Notifications: NewNotificationHandler(inbox),
	})
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != "" {
		req.Header.Set("Ax-User-Id", actor)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("bad error json: %v; raw=%s", err, rec.Body.String())
	}
	return er
}

// ---- tests ----

func TestSubmitApplication(t *testing.T) {
	var got appuc.SubmitInput
	apps := &fakeApps{SubmitFn: func(_ context.Context, in appuc.SubmitInput) (*appuc.ApplicationDTO, error) {
		got = in
		return &appuc.ApplicationDTO{ApplicationID: "a1", Status: "PENDING"}, nil
	}}
	e := newAPI(apps, &fakeLoans{}, &fakePayments{})

	rec := call(t, e, stdhttp.MethodPost, "/applications", borrowerID,
		`{"loan_type_id":1,"duration_id":2,"amount":10000.5,"purpose":"stock"}`)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got.BorrowerID != borrowerID || got.LoanTypeID != 1 || got.DurationID != 2 || !got.Amount.Equal(decimal.RequireFromString("10000.5")) {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestSubmitApplication_RequestErrors(t *testing.T) {
	apps := &fakeApps{SubmitFn: func(context.Context, appuc.SubmitInput) (*appuc.ApplicationDTO, error) {
		t.Fatal("use case must not be called")
		return nil, nil
	}}
	e := newAPI(apps, &fakeLoans{}, &fakePayments{})

	tests := []struct {
		name   string
		actor  string
		body   string
		status int
		field  string
	}{
		{"missing actor", "", `{"loan_type_id":1,"duration_id":2,"amount":1}`, stdhttp.StatusUnauthorized, ""},
		{"broken json", borrowerID, `{"amount":`, stdhttp.StatusBadRequest, ""},
		{"three decimals", borrowerID, `{"loan_type_id":1,"duration_id":2,"amount":1.234}`, stdhttp.StatusUnprocessableEntity, "amount"},
		{"missing loan type", borrowerID, `{"duration_id":2,"amount":100}`, stdhttp.StatusUnprocessableEntity, "loan_type_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, e, stdhttp.MethodPost, "/applications", tt.actor, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.field != "" {
				er := decodeError(t, rec)
				found := false
				for _, d := range er.Details {
					found = found || d.Field == tt.field
				}
				if !found {
					t.Fatalf("no detail for %s: %+v", tt.field, er.Details)
				}
			}
		})
	}
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{errs.ErrUnauthorized, stdhttp.StatusForbidden, "UNAUTHORIZED"},
		{errs.New(errs.KindNotFound, "loan not found"), stdhttp.StatusNotFound, "NOT_FOUND"},
		{errs.ErrAmountExceeded, stdhttp.StatusUnprocessableEntity, "AMOUNT_EXCEEDED"},
		{errs.ErrInterestRateNotFound, stdhttp.StatusUnprocessableEntity, "INTEREST_RATE_NOT_FOUND"},
		{errs.ErrTermAlreadyPaid, stdhttp.StatusConflict, "TERM_ALREADY_PAID"},
		{errs.ErrAlreadyProcessed, stdhttp.StatusConflict, "ALREADY_PROCESSED"},
		{errs.ErrLoanAlreadyExists, stdhttp.StatusConflict, "LOAN_ALREADY_EXISTS"},
		{errors.New("connection reset"), stdhttp.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			loans := &fakeLoans{GetFn: func(context.Context, string, string) (*loanuc.LoanDTO, error) { return nil, tt.err }}
			e := newAPI(&fakeApps{}, loans, &fakePayments{})

			rec := call(t, e, stdhttp.MethodGet, "/loans/l1", borrowerID, "")
			if rec.Code != tt.status {
				t.Fatalf("status=%d want %d", rec.Code, tt.status)
			}
			er := decodeError(t, rec)
			if er.Code != tt.code {
				t.Fatalf("code=%q want %q", er.Code, tt.code)
			}
			if tt.code == "" && er.Error != "internal error" {
				t.Fatalf("internal details leaked: %q", er.Error)
			}
		})
	}
}

func TestEvaluateAndCreateLoan(t *testing.T) {
	var eval appuc.EvaluateInput
	apps := &fakeApps{EvaluateFn: func(_ context.Context, in appuc.EvaluateInput) (*appuc.EvaluationDTO, error) {
		eval = in
		return &appuc.EvaluationDTO{Application: appuc.ApplicationDTO{ApplicationID: in.ApplicationID, Status: "REJECTED"}}, nil
	}}
	var created string
	loans := &fakeLoans{CreateFn: func(_ context.Context, applicationID, actor string) (*loanuc.LoanDTO, error) {
		created = applicationID
		return &loanuc.LoanDTO{LoanID: "l1", Status: "ACTIVE"}, nil
	}}
	e := newAPI(apps, loans, &fakePayments{})

	rec := call(t, e, stdhttp.MethodPost, "/applications/a1/evaluate", staffID, `{"decision":"REJECTED","reason":"income"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("evaluate status=%d body=%s", rec.Code, rec.Body.String())
	}
	if eval.ApplicationID != "a1" || eval.EvaluatorID != staffID || eval.Decision != "REJECTED" || eval.Reason != "income" {
		t.Fatalf("unexpected input %+v", eval)
	}

	rec = call(t, e, stdhttp.MethodPost, "/applications/a1/loan", staffID, "")
	if rec.Code != stdhttp.StatusCreated || created != "a1" {
		t.Fatalf("create loan status=%d app=%q", rec.Code, created)
	}
}

func TestDeleteApplication(t *testing.T) {
	apps := &fakeApps{DeleteFn: func(_ context.Context, applicationID, actor string) error {
		if actor != borrowerID {
			return errs.ErrUnauthorized
		}
		return nil
	}}
	e := newAPI(apps, &fakeLoans{}, &fakePayments{})

	if rec := call(t, e, stdhttp.MethodDelete, "/applications/a1", borrowerID, ""); rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec := call(t, e, stdhttp.MethodDelete, "/applications/a1", staffID, ""); rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestLoanRoutes(t *testing.T) {
	loans := &fakeLoans{
		ReconcileFn: func(_ context.Context, loanID, _ string) (*loanuc.LoanDTO, error) {
			return &loanuc.LoanDTO{LoanID: loanID, Status: "OVERDUE"}, nil
		},
		ListFn: func(_ context.Context, borrower, _ string) ([]loanuc.LoanDTO, error) {
			return []loanuc.LoanDTO{{LoanID: "l1", BorrowerID: borrower}}, nil
		},
	}
	e := newAPI(&fakeApps{}, loans, &fakePayments{})

	rec := call(t, e, stdhttp.MethodPost, "/loans/l9/reconcile", staffID, "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"loan_id":"l9"`) {
		t.Fatalf("reconcile status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = call(t, e, stdhttp.MethodGet, "/borrowers/"+borrowerID+"/loans", borrowerID, "")
	var body struct {
		Loans []loanuc.LoanDTO `json:"loans"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || len(body.Loans) != 1 || body.Loans[0].BorrowerID != borrowerID {
		t.Fatalf("list status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSubmitPayment(t *testing.T) {
	var got payuc.SubmitInput
	pays := &fakePayments{SubmitFn: func(_ context.Context, in payuc.SubmitInput) (*payuc.SubmitDTO, error) {
		got = in
		return &payuc.SubmitDTO{Payment: payuc.PaymentDTO{PaymentID: "p1", Status: "PENDING"}}, nil
	}}
	e := newAPI(&fakeApps{}, &fakeLoans{}, pays)

	term := strings.Repeat("c", 32)
	rec := call(t, e, stdhttp.MethodPost, "/loans/l1/payments", borrowerID,
		`{"term_id":"`+term+`","amount":1030,"payment_type":"INSTALLMENT","method":"bank_transfer","penalty":30}`)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got.LoanID != "l1" || got.TermID != term || got.BorrowerID != borrowerID || !got.Amount.Equal(decimal.NewFromInt(1030)) {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Penalty == nil || !got.Penalty.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("penalty=%v", got.Penalty)
	}

	// no penalty field keeps the override nil
	rec = call(t, e, stdhttp.MethodPost, "/loans/l1/payments", borrowerID, `{"amount":10}`)
	if rec.Code != stdhttp.StatusCreated || got.Penalty != nil {
		t.Fatalf("status=%d penalty=%v", rec.Code, got.Penalty)
	}

	rec = call(t, e, stdhttp.MethodPost, "/loans/l1/payments", borrowerID, `{"amount":10,"payment_type":"BARTER"}`)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("bad type status=%d", rec.Code)
	}
}

func TestApproveRejectAndListPayments(t *testing.T) {
	var reason string
	pays := &fakePayments{
		ApproveFn: func(_ context.Context, paymentID, approver string) (*payuc.ApprovalDTO, error) {
			return &payuc.ApprovalDTO{Payment: payuc.PaymentDTO{PaymentID: paymentID, Status: "COMPLETED"}, PaidOff: true}, nil
		},
		RejectFn: func(_ context.Context, paymentID, _ string, r string) (*payuc.PaymentDTO, error) {
			reason = r
			return &payuc.PaymentDTO{PaymentID: paymentID, Status: "FAILED"}, nil
		},
		ListFn: func(_ context.Context, loanID, _ string) ([]payuc.PaymentDTO, error) {
			return []payuc.PaymentDTO{{PaymentID: "p1", LoanID: loanID}}, nil
		},
	}
	e := newAPI(&fakeApps{}, &fakeLoans{}, pays)

	rec := call(t, e, stdhttp.MethodPost, "/payments/p1/approve", staffID, "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"paid_off":true`) {
		t.Fatalf("approve status=%d body=%s", rec.Code, rec.Body.String())
	}

	if rec = call(t, e, stdhttp.MethodPost, "/payments/p1/reject", staffID, `{}`); rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("reject without reason status=%d", rec.Code)
	}
	rec = call(t, e, stdhttp.MethodPost, "/payments/p1/reject", staffID, `{"reason":"blurry receipt"}`)
	if rec.Code != stdhttp.StatusOK || reason != "blurry receipt" {
		t.Fatalf("reject status=%d reason=%q", rec.Code, reason)
	}

	rec = call(t, e, stdhttp.MethodGet, "/loans/l1/payments", borrowerID, "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"payments":[`) {
		t.Fatalf("list status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUnreadNotifications(t *testing.T) {
	var gotUser string
	var gotLimit int
	inbox := &fakeInbox{UnreadFn: func(_ context.Context, userID string, limit int) ([]notifyadp.Notification, error) {
		gotUser, gotLimit = userID, limit
		return []notifyadp.Notification{{UserID: userID, Type: "PAYMENT_SUBMITTED", Title: "Payment awaiting approval"}}, nil
	}}
	e := newAPIWithInbox(&fakeApps{}, &fakeLoans{}, &fakePayments{}, inbox)

	rec := call(t, e, stdhttp.MethodGet, "/notifications", staffID, "")
	if rec.Code != stdhttp.StatusOK || gotUser != staffID || gotLimit != 20 {
		t.Fatalf("code=%d user=%s limit=%d", rec.Code, gotUser, gotLimit)
	}
	var body struct {
		Notifications []notifyadp.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || len(body.Notifications) != 1 {
		t.Fatalf("body=%s err=%v", rec.Body.String(), err)
	}

	if rec := call(t, e, stdhttp.MethodGet, "/notifications?limit=5", staffID, ""); rec.Code != stdhttp.StatusOK || gotLimit != 5 {
		t.Fatalf("limit=5: code=%d limit=%d", rec.Code, gotLimit)
	}
	for _, bad := range []string{"0", "101", "ten"} {
		if rec := call(t, e, stdhttp.MethodGet, "/notifications?limit="+bad, staffID, ""); rec.Code != stdhttp.StatusBadRequest {
			t.Fatalf("limit=%s: code=%d", bad, rec.Code)
		}
	}
	if rec := call(t, e, stdhttp.MethodGet, "/notifications", "", ""); rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("missing actor: code=%d", rec.Code)
	}

	empty := newAPI(&fakeApps{}, &fakeLoans{}, &fakePayments{})
	rec = call(t, empty, stdhttp.MethodGet, "/notifications", borrowerID, "")
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"notifications":[]`) {
		t.Fatalf("empty inbox: code=%d body=%s", rec.Code, rec.Body.String())
	}

	failing := newAPIWithInbox(&fakeApps{}, &fakeLoans{}, &fakePayments{}, &fakeInbox{
		UnreadFn: func(context.Context, string, int) ([]notifyadp.Notification, error) { return nil, errors.New("db down") },
	})
	if rec := call(t, failing, stdhttp.MethodGet, "/notifications", staffID, ""); rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("store error: code=%d", rec.Code)
	}
}
