package members

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegistered       ActivityEventType = "member.registered"
	ActivityEventInvited          ActivityEventType = "member.invited"
	ActivityEventEmailConfirmed   ActivityEventType = "member.email.confirmed"
	ActivityEventJoined           ActivityEventType = "member.joined"
	ActivityEventPasswordReset    ActivityEventType = "member.password.reset"
	ActivityEventPasswordChanged  ActivityEventType = "member.password.changed"
	ActivityEventEmailChanged     ActivityEventType = "member.email.changed"
	ActivityEventPrimaryInfo      ActivityEventType = "member.primary_info.submitted"
	ActivityEventProfileCompleted ActivityEventType = "member.profile.completed"
	ActivityEventPhoneConfirmed   ActivityEventType = "member.phone.confirmed"
	ActivityEventModuleRecorded   ActivityEventType = "member.module.recorded"
	ActivityEventSavingsWindowSet ActivityEventType = "member.savings.window_set"
	ActivityEventBalanceRecorded  ActivityEventType = "member.balance.recorded"
	ActivityEventArchived         ActivityEventType = "member.archived"
)

// ActorRef identifies who/what triggered a lifecycle transition.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	AccountID  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
