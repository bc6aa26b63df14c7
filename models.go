package members

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's capability set
type AccountRole = string

const (
	// RoleMember is the default program participant role
	RoleMember AccountRole = "member"
	// RoleAdmin can manage other accounts
	RoleAdmin AccountRole = "admin"
)

// DefaultGoalAmount is the starting savings goal for new accounts, in dollars.
const DefaultGoalAmount int64 = 500

// DefaultTotalModules is the number of curriculum modules in the program.
const DefaultTotalModules = 8

// Account is the member model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acct"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          AccountRole `bun:"account_role,notnull" json:"account_role,omitempty"`
	Stage         Stage       `bun:"stage,notnull,default:0" json:"stage"`
	FirstName     string      `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string      `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string      `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string      `bun:"password_hash" json:"-"`

	MobilePhone string `bun:"mobile_phone" json:"mobile_phone,omitempty"`
	HomePhone   string `bun:"home_phone" json:"home_phone,omitempty"`

	Street string `bun:"street" json:"street,omitempty"`
	City   string `bun:"city" json:"city,omitempty"`
	State  string `bun:"state" json:"state,omitempty"`
	Zip    string `bun:"zip" json:"zip,omitempty"`

	DOB               *time.Time `bun:"dob" json:"dob,omitempty"`
	Gender            string     `bun:"gender" json:"gender,omitempty"`
	Ethnicity         string     `bun:"ethnicity" json:"ethnicity,omitempty"`
	MaritalStatus     string     `bun:"marital_status" json:"marital_status,omitempty"`
	HouseholdStatus   string     `bun:"household_status" json:"household_status,omitempty"`
	CitizenshipStatus string     `bun:"citizenship_status" json:"citizenship_status,omitempty"`
	WorkStatus        string     `bun:"work_status" json:"work_status,omitempty"`
	TANF              bool       `bun:"tanf" json:"tanf,omitempty"`
	EITC              bool       `bun:"eitc" json:"eitc,omitempty"`
	NumberOfChildren  int        `bun:"number_of_children" json:"number_of_children,omitempty"`

	BankBalance      int64      `bun:"bank_balance,notnull,default:0" json:"bank_balance"`
	BankAcctOpen     *time.Time `bun:"bank_acct_open" json:"bank_acct_open,omitempty"`
	SavingsStartDate *time.Time `bun:"savings_start_date" json:"savings_start_date,omitempty"`
	SavingsEndDate   *time.Time `bun:"savings_end_date" json:"savings_end_date,omitempty"`
	GoalAmount       int64      `bun:"goal_amount,notnull" json:"goal_amount"`
	TotalModules     int        `bun:"total_modules,notnull" json:"total_modules"`

	Modules []*ModuleProgress `bun:"rel:has-many,join:id=account_id" json:"modules,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// FullName joins the first and last name for display
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// HasStage reports whether the account completed the given milestone
func (a *Account) HasStage(milestone Stage) bool {
	return a.Stage.Has(milestone)
}

// IsAdmin reports whether the account has the admin role
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// VerifyPassword checks plaintext against the stored hash. It fails closed:
// accounts that never set a password (invited, not yet joined) always reject.
func (a *Account) VerifyPassword(plaintext string) bool {
	if a.PasswordHash == "" {
		return false
	}
	return ComparePasswordAndHash(plaintext, a.PasswordHash) == nil
}

// PendingPhoneVerification holds a not-yet-confirmed phone number and its
// verification code. At most one exists per account; it is deleted on both
// the match and mismatch paths.
type PendingPhoneVerification struct {
	bun.BaseModel `bun:"table:phone_verifications,alias:phv"`
	AccountID     uuid.UUID  `bun:"account_id,pk,type:uuid" json:"account_id"`
	PhoneNumber   string     `bun:"phone_number,notnull" json:"phone_number"`
	Code          string     `bun:"code,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// ModuleProgress is one completed curriculum module for an account, unique
// per (account, module number) and upserted by module number.
type ModuleProgress struct {
	bun.BaseModel  `bun:"table:module_progress,alias:mod"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID      uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id"`
	ModuleNum      int        `bun:"module_num,notnull" json:"module_num"`
	Filename       string     `bun:"filename" json:"filename,omitempty"`
	CertificateURL string     `bun:"certificate_url" json:"certificate_url,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SavingsHistory is one recorded balance snapshot for an account.
type SavingsHistory struct {
	bun.BaseModel `bun:"table:savings_history,alias:svh"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id"`
	Date          time.Time  `bun:"date,notnull" json:"date"`
	Balance       int64      `bun:"balance,notnull" json:"balance"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
