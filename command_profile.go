package members

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SubmitPrimaryInfoMessage struct {
	AccountID   uuid.UUID `json:"account_id"`
	MobilePhone string    `json:"mobile_phone"`
	HomePhone   string    `json:"home_phone"`
	Street      string    `json:"street"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Zip         string    `json:"zip"`
	OnResponse  func(resp *SubmitPrimaryInfoResponse)
}

func (e SubmitPrimaryInfoMessage) Type() string { return "member.primary_info" }

func (e SubmitPrimaryInfoMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.MobilePhone, validation.Required),
		validation.Field(&e.Street, validation.Required),
		validation.Field(&e.City, validation.Required),
		validation.Field(&e.State, validation.Required, validation.Length(2, 2)),
		validation.Field(&e.Zip, validation.Required, validation.Length(5, 10)),
	)
}

type SubmitPrimaryInfoResponse struct {
	Account *Account
}

// SubmitPrimaryInfoHandler stores contact and address details, queues a phone
// verification code for the submitted mobile number, and texts the code. The
// mobile number on the account is not replaced until the code is confirmed.
type SubmitPrimaryInfoHandler struct {
	repo     RepositoryManager
	sms      SMSSender
	activity ActivitySink
	logger   Logger
	region   string
}

func NewSubmitPrimaryInfoHandler(repo RepositoryManager) *SubmitPrimaryInfoHandler {
	return &SubmitPrimaryInfoHandler{
		repo:     repo,
		sms:      noopSMSSender{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		region:   "US",
	}
}

func (h *SubmitPrimaryInfoHandler) WithSMSSender(s SMSSender) *SubmitPrimaryInfoHandler {
	h.sms = normalizeSMSSender(s)
	return h
}

func (h *SubmitPrimaryInfoHandler) WithPhoneRegion(region string) *SubmitPrimaryInfoHandler {
	if region != "" {
		h.region = region
	}
	return h
}

func (h *SubmitPrimaryInfoHandler) WithActivitySink(sink ActivitySink) *SubmitPrimaryInfoHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *SubmitPrimaryInfoHandler) WithLogger(logger Logger) *SubmitPrimaryInfoHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SubmitPrimaryInfoHandler) Execute(ctx context.Context, event SubmitPrimaryInfoMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during primary info submission",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubmitPrimaryInfoHandler) execute(ctx context.Context, event SubmitPrimaryInfoMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid primary info payload")
	}

	mobile, err := NormalizePhone(event.MobilePhone, h.region)
	if err != nil {
		return err
	}

	home := ""
	if event.HomePhone != "" {
		if home, err = NormalizePhone(event.HomePhone, h.region); err != nil {
			return err
		}
	}

	code, err := GeneratePhoneCode()
	if err != nil {
		return err
	}

	var account *Account
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &Account{
			ID:        event.AccountID,
			HomePhone: home,
			Street:    event.Street,
			City:      event.City,
			State:     event.State,
			Zip:       event.Zip,
		}

		var err error
		account, err = h.repo.Accounts().UpdateTx(ctx, tx, record,
			repository.UpdateByID(event.AccountID.String()),
		)
		if err != nil {
			return err
		}

		if err := h.repo.Accounts().MarkStageTx(ctx, tx, event.AccountID, StagePrimaryInfoSubmitted); err != nil {
			return err
		}

		return h.repo.PhoneVerifications().ReplaceTx(ctx, tx, &PendingPhoneVerification{
			AccountID:   event.AccountID,
			PhoneNumber: mobile,
			Code:        code,
		})
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "primary info transaction failed")
	}

	// provider failure does not undo the stored code; the member can request
	// a re-send by submitting again
	if err := h.sms.Send(ctx, mobile, fmt.Sprintf("Your verification code is %s", code)); err != nil {
		h.logger.Warn("sms dispatch failed: %v", err)
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventPrimaryInfo,
		Actor:     ActorRef{ID: event.AccountID.String(), Type: "member"},
		AccountID: event.AccountID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&SubmitPrimaryInfoResponse{Account: account})
	}

	return nil
}

type SubmitProfileMessage struct {
	AccountID         uuid.UUID  `json:"account_id"`
	DOB               *time.Time `json:"dob"`
	Gender            string     `json:"gender"`
	Ethnicity         string     `json:"ethnicity"`
	MaritalStatus     string     `json:"marital_status"`
	HouseholdStatus   string     `json:"household_status"`
	CitizenshipStatus string     `json:"citizenship_status"`
	WorkStatus        string     `json:"work_status"`
	TANF              bool       `json:"tanf"`
	EITC              bool       `json:"eitc"`
	NumberOfChildren  int        `json:"number_of_children"`
	OnResponse        func(resp *SubmitProfileResponse)
}

func (e SubmitProfileMessage) Type() string { return "member.profile" }

func (e SubmitProfileMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.DOB, validation.Required),
		validation.Field(&e.NumberOfChildren, validation.Min(0)),
	)
}

type SubmitProfileResponse struct {
	Account *Account
}

// SubmitProfileHandler stores demographic details and sets the
// profile-completed bit.
type SubmitProfileHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewSubmitProfileHandler(repo RepositoryManager) *SubmitProfileHandler {
	return &SubmitProfileHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *SubmitProfileHandler) WithActivitySink(sink ActivitySink) *SubmitProfileHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *SubmitProfileHandler) WithLogger(logger Logger) *SubmitProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SubmitProfileHandler) Execute(ctx context.Context, event SubmitProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile submission",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubmitProfileHandler) execute(ctx context.Context, event SubmitProfileMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile payload")
	}

	var account *Account
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &Account{
			ID:                event.AccountID,
			DOB:               event.DOB,
			Gender:            event.Gender,
			Ethnicity:         event.Ethnicity,
			MaritalStatus:     event.MaritalStatus,
			HouseholdStatus:   event.HouseholdStatus,
			CitizenshipStatus: event.CitizenshipStatus,
			WorkStatus:        event.WorkStatus,
			TANF:              event.TANF,
			EITC:              event.EITC,
			NumberOfChildren:  event.NumberOfChildren,
		}

		var err error
		account, err = h.repo.Accounts().UpdateTx(ctx, tx, record,
			repository.UpdateByID(event.AccountID.String()),
		)
		if err != nil {
			return err
		}

		return h.repo.Accounts().MarkStageTx(ctx, tx, event.AccountID, StageProfileCompleted)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventProfileCompleted,
		Actor:     ActorRef{ID: event.AccountID.String(), Type: "member"},
		AccountID: event.AccountID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&SubmitProfileResponse{Account: account})
	}

	return nil
}
