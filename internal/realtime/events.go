package realtime

type Event string

const (
	EventSessionStarted     Event = "session.started"
	EventSessionCompleted   Event = "session.completed"
	EventObjectiveCompleted Event = "objective.completed"
	EventSyncStateChanged   Event = "sync.state_changed"
)

type Message struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}
