package members

import "strings"

// Stage is a bitmask of completed lifecycle milestones. The bits are
// independent: a member can finish the curriculum modules before verifying
// a phone number. Bits are only ever ORed in; nothing clears a bit short of
// deleting the account.
type Stage int64

const (
	// StageUnconfirmed is a freshly registered or invited account.
	StageUnconfirmed Stage = 0
	// StageEmailConfirmed is set when the confirmation token is consumed.
	StageEmailConfirmed Stage = 1
	// StagePrimaryInfoSubmitted is set when the primary contact form lands.
	StagePrimaryInfoSubmitted Stage = 2
	// StagePhoneConfirmed is set when the SMS verification code matches.
	StagePhoneConfirmed Stage = 4
	// StageProfileCompleted is set when the full applicant profile is saved.
	StageProfileCompleted Stage = 8
	// StageModulesCompleted is set when every curriculum module is recorded.
	StageModulesCompleted Stage = 16
	// StageBalanceTracked is set when the first savings balance is recorded.
	StageBalanceTracked Stage = 32
	// StageComplete is the union of every milestone bit.
	StageComplete Stage = 63
	// StageArchived is orthogonal to the milestones and marks soft deletion.
	StageArchived Stage = 64
)

// Has reports whether every bit in milestone is set.
func (s Stage) Has(milestone Stage) bool {
	if milestone == StageUnconfirmed {
		return s == StageUnconfirmed
	}
	return s&milestone == milestone
}

// With returns the stage with the given bits added.
func (s Stage) With(milestone Stage) Stage {
	return s | milestone
}

// IsComplete reports whether every milestone bit is set.
func (s Stage) IsComplete() bool {
	return s.Has(StageComplete)
}

// IsArchived reports whether the account was soft deleted.
func (s Stage) IsArchived() bool {
	return s.Has(StageArchived)
}

var stageNames = []struct {
	bit  Stage
	name string
}{
	{StageEmailConfirmed, "email_confirmed"},
	{StagePrimaryInfoSubmitted, "primary_info_submitted"},
	{StagePhoneConfirmed, "phone_confirmed"},
	{StageProfileCompleted, "profile_completed"},
	{StageModulesCompleted, "modules_completed"},
	{StageBalanceTracked, "balance_tracked"},
	{StageArchived, "archived"},
}

func (s Stage) String() string {
	if s == StageUnconfirmed {
		return "unconfirmed"
	}
	parts := make([]string, 0, len(stageNames))
	for _, sn := range stageNames {
		if s&sn.bit == sn.bit {
			parts = append(parts, sn.name)
		}
	}
	return strings.Join(parts, "|")
}
