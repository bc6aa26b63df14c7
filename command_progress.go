package members

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RecordModuleProgressMessage struct {
	AccountID   uuid.UUID `json:"account_id"`
	ModuleNum   int       `json:"module_num"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	OnResponse  func(resp *RecordModuleProgressResponse)
}

func (e RecordModuleProgressMessage) Type() string { return "member.module_progress" }

func (e RecordModuleProgressMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ModuleNum, validation.Required, validation.Min(1)),
	)
}

type RecordModuleProgressResponse struct {
	Completed int
	AllDone   bool
	UploadURL string
}

// RecordModuleProgressHandler upserts curriculum progress by module number
// and flips the modules-completed bit once every module has a row. When an
// upload signer is configured a signed certificate URL is minted for the
// submitted filename.
type RecordModuleProgressHandler struct {
	repo     RepositoryManager
	signer   UploadSigner
	activity ActivitySink
	logger   Logger
}

func NewRecordModuleProgressHandler(repo RepositoryManager) *RecordModuleProgressHandler {
	return &RecordModuleProgressHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *RecordModuleProgressHandler) WithUploadSigner(signer UploadSigner) *RecordModuleProgressHandler {
	h.signer = signer
	return h
}

func (h *RecordModuleProgressHandler) WithActivitySink(sink ActivitySink) *RecordModuleProgressHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RecordModuleProgressHandler) WithLogger(logger Logger) *RecordModuleProgressHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RecordModuleProgressHandler) Execute(ctx context.Context, event RecordModuleProgressMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during module progress recording",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RecordModuleProgressHandler) execute(ctx context.Context, event RecordModuleProgressMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid module progress payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByID(ctx, event.AccountID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if event.ModuleNum > account.TotalModules {
		return goerrors.New("module number exceeds the curriculum length", goerrors.CategoryValidation)
	}

	uploadURL := ""
	if h.signer != nil && event.Filename != "" {
		if uploadURL, err = h.signer.SignUpload(ctx, event.Filename, event.ContentType); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign certificate upload")
		}
	}

	completed := 0
	allDone := false

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &ModuleProgress{
			AccountID:      event.AccountID,
			ModuleNum:      event.ModuleNum,
			Filename:       event.Filename,
			CertificateURL: uploadURL,
		}

		if err := h.repo.ModuleRecords().UpsertByModuleTx(ctx, tx, record); err != nil {
			return err
		}

		var err error
		if completed, err = h.repo.ModuleRecords().CountForAccountTx(ctx, tx, event.AccountID); err != nil {
			return err
		}

		if completed >= account.TotalModules {
			allDone = true
			return h.repo.Accounts().MarkStageTx(ctx, tx, event.AccountID, StageModulesCompleted)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "module progress transaction failed")
	}

	recordActivity(ctx, h.logger, h.activity, ActivityEvent{
		EventType: ActivityEventModuleRecorded,
		Actor:     ActorRef{ID: event.AccountID.String(), Type: "member"},
		AccountID: event.AccountID.String(),
		Metadata:  map[string]any{"module_num": event.ModuleNum, "completed": completed},
	})

	if event.OnResponse != nil {
		event.OnResponse(&RecordModuleProgressResponse{
			Completed: completed,
			AllDone:   allDone,
			UploadURL: uploadURL,
		})
	}

	return nil
}
