package model

import "github.com/golang-jwt/jwt/v5"

// OperatorClaims are JWT claims for operator authentication
type OperatorClaims struct {
	OperatorID string `json:"operatorId"`
	jwt.RegisteredClaims
}

// RespondentClaims are JWT claims for session-scoped respondent tokens
type RespondentClaims struct {
	SessionID    string `json:"sessionId"`
	RespondentID string `json:"respondentId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for operator login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token      string `json:"token"`
	OperatorID string `json:"operatorId"`
}

// CreateSessionRequest is the optional body of POST /v1/sessions
type CreateSessionRequest struct {
	RespondentID string `json:"respondentId"`
}

// CreateSessionResponse carries the new session id and its respondent token
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

// SubmitAnswerRequest is the body of POST /v1/survey/answers
type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}
