package model

import "time"

// FlowState is the position of a session in the survey flow
type FlowState string

const (
	StateNotStarted       FlowState = "not_started"
	StateAwaitingAnswer   FlowState = "awaiting_answer"   // static question pending
	StateAwaitingConsent  FlowState = "awaiting_consent"  // consent prompt pending
	StateAwaitingFollowup FlowState = "awaiting_followup" // dynamic follow-up pending
	StateCompleted        FlowState = "completed"
)

// ConsentDecision records the respondent's answer to the consent prompt
type ConsentDecision string

const (
	ConsentUnset   ConsentDecision = ""
	ConsentGranted ConsentDecision = "granted"
	ConsentDenied  ConsentDecision = "denied"
)

// DynamicFollowup is a follow-up question synthesized from a classification response.
// It lives only inside the session that produced it.
type DynamicFollowup struct {
	Question         Question `json:"question"`
	Kind             string   `json:"kind"`
	RuleIndex        int      `json:"ruleIndex"`        // position in survey_assist.interactions
	AnchorID         string   `json:"anchorId"`         // question whose answer fired the rule
	InteractionIndex int      `json:"interactionIndex"` // position in AnswerSession.Interactions
}

// QueuedFollowup waits until AfterQuestionID has been answered
type QueuedFollowup struct {
	AfterQuestionID string          `json:"afterQuestionId"`
	Followup        DynamicFollowup `json:"followup"`
}

// Submission remembers the last accepted answer so retries can be replayed
type Submission struct {
	QuestionID     string `json:"questionId"`
	Value          string `json:"value"`
	NextQuestionID string `json:"nextQuestionId,omitempty"`
	Completed      bool   `json:"completed"`
}

// AnswerSession is the per-respondent progress record mutated by the flow engine
type AnswerSession struct {
	ID                string            `json:"id"`
	RespondentID      string            `json:"respondentId"`
	State             FlowState         `json:"state"`
	CurrentQuestionID string            `json:"currentQuestionId,omitempty"`
	NextStatic        int               `json:"nextStatic"` // index of the next static question to present
	Answers           map[string]string `json:"answers"`
	History           []string          `json:"history"`
	Consent           ConsentDecision   `json:"consent,omitempty"`
	DeferredAnchor    string            `json:"deferredAnchor,omitempty"` // anchor waiting on the consent answer
	FollowupCount     int               `json:"followupCount"`            // follow-ups actually presented
	FollowupSeq       int               `json:"followupSeq"`              // follow-up ids issued
	Pending           *DynamicFollowup  `json:"pending,omitempty"`
	Immediate         []DynamicFollowup `json:"immediate,omitempty"`
	Queued            []QueuedFollowup  `json:"queued,omitempty"`
	Interactions      []Interaction     `json:"interactions,omitempty"`
	LastSubmission    *Submission       `json:"lastSubmission,omitempty"`
	Completed         bool              `json:"completed"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	StartedAt         *time.Time        `json:"startedAt,omitempty"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`
}

// NewAnswerSession creates an empty session in the NotStarted state
func NewAnswerSession(id, respondentID string, now time.Time) *AnswerSession {
	return &AnswerSession{
		ID:           id,
		RespondentID: respondentID,
		State:        StateNotStarted,
		Answers:      make(map[string]string),
		History:      []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
