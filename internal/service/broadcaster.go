package service

// Monitor event types
const (
	EventSessionStarted    = "session_started"
	EventAnswerRecorded    = "answer_recorded"
	EventConsentRecorded   = "consent_recorded"
	EventFollowupPresented = "followup_presented"
	EventGatewayFailed     = "gateway_failed"
	EventSessionCompleted  = "session_completed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToMonitors(msgType string, payload interface{})
}

// SessionScoped payloads belong to one session, so monitors filtering on a
// session only receive their own events
type SessionScoped interface {
	EventSessionID() string
}

// SessionEvent is the payload of every monitor event
type SessionEvent struct {
	SessionID     string `json:"sessionId"`
	RespondentID  string `json:"respondentId,omitempty"`
	QuestionID    string `json:"questionId,omitempty"`
	State         string `json:"state,omitempty"`
	Consent       string `json:"consent,omitempty"`
	Kind          string `json:"kind,omitempty"`
	ErrorKind     string `json:"errorKind,omitempty"`
	FollowupCount int    `json:"followupCount,omitempty"`
}

// EventSessionID implements SessionScoped
func (e SessionEvent) EventSessionID() string {
	return e.SessionID
}
