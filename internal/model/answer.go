package model

import "time"

// AnsweredQuestion is one entry of a survey summary or stored result
type AnsweredQuestion struct {
	QuestionID      string `json:"questionId" bson:"questionId"`
	QuestionName    string `json:"questionName" bson:"questionName"`
	QuestionText    string `json:"questionText" bson:"questionText"`
	ResponseName    string `json:"responseName,omitempty" bson:"responseName,omitempty"`
	Response        string `json:"response" bson:"response"`
	AssistGenerated bool   `json:"assistGenerated" bson:"assistGenerated"` // consent or follow-up question
}

// SurveyResult is the persisted record of a completed session
type SurveyResult struct {
	ID            string             `json:"id" bson:"_id,omitempty"`
	SessionID     string             `json:"sessionId" bson:"sessionId"`
	RespondentID  string             `json:"respondentId" bson:"respondentId"`
	SurveyTitle   string             `json:"surveyTitle" bson:"surveyTitle"`
	Answers       []AnsweredQuestion `json:"answers" bson:"answers"`
	Consent       ConsentDecision    `json:"consent" bson:"consent"`
	FollowupCount int                `json:"followupCount" bson:"followupCount"`
	Interactions  []Interaction      `json:"interactions" bson:"interactions"`
	StartedAt     time.Time          `json:"startedAt" bson:"startedAt"`
	CompletedAt   time.Time          `json:"completedAt" bson:"completedAt"`
}
