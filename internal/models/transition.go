package models

// Actor identifies who is driving a status change.
type Actor string

const (
	ActorOwner     Actor = "owner"
	ActorProcessor Actor = "processor"
	ActorRetry     Actor = "retry"
	ActorScheduler Actor = "auto_scheduler"
)

// TransitionContext carries the facts the guard needs besides the two statuses.
type TransitionContext struct {
	Actor          Actor
	ApprovalStatus ApprovalStatus
	HasScheduledAt bool
}

// CanTransition is the single guard consulted before any status write.
func CanTransition(from, to PostStatus, tc TransitionContext) bool {
	switch {
	case from == PostStatusDraft && to == PostStatusScheduled:
		return tc.HasScheduledAt && (tc.Actor == ActorOwner || tc.Actor == ActorScheduler)
	case from == PostStatusScheduled && to == PostStatusScheduled:
		// rescheduling an already queued post
		return tc.HasScheduledAt && (tc.Actor == ActorOwner || tc.Actor == ActorScheduler)
	case from == PostStatusScheduled && to == PostStatusDraft:
		return tc.Actor == ActorOwner
	case from == PostStatusScheduled && to == PostStatusSent:
		return tc.Actor == ActorProcessor && tc.ApprovalStatus.Deliverable()
	case from == PostStatusScheduled && to == PostStatusFailed:
		return tc.Actor == ActorProcessor
	case from == PostStatusFailed && to == PostStatusScheduled:
		return tc.Actor == ActorRetry
	}
	return false
}

// TransitionContextFor builds a context from the post's current fields.
func TransitionContextFor(p *Post, actor Actor) TransitionContext {
	return TransitionContext{
		Actor:          actor,
		ApprovalStatus: p.ApprovalStatus,
		HasScheduledAt: p.ScheduledAt != nil && !p.ScheduledAt.IsZero(),
	}
}
