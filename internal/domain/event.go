package domain

const (
	EventNameSessionCompleted = "session.completed"
	EventNameProgressUpdated  = "progress.updated"
)

type EventSessionCompleted struct {
	Session InterviewSession
}

func (EventSessionCompleted) Name() string { return EventNameSessionCompleted }

type EventProgressUpdated struct {
	UserID   string
	Progress Progress
}

func (EventProgressUpdated) Name() string { return EventNameProgressUpdated }
