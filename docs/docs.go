// Package docs registers the Survey Assist API swagger document.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Operator login",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Create a respondent session",
                "parameters": [
                    {"description": "respondent", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/model.CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.CreateSessionResponse"}}
                }
            }
        },
        "/survey/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["survey"],
                "summary": "Start or resume the survey",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/flow.Step"}}
                }
            }
        },
        "/survey/current": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["survey"],
                "summary": "Pending question",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/flow.Step"}}
                }
            }
        },
        "/survey/answers": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["survey"],
                "summary": "Answer the pending question",
                "parameters": [
                    {"description": "answer", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SubmitAnswerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/flow.Step"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/survey/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["survey"],
                "summary": "Answers so far",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/model.AnsweredQuestion"}}}}
                }
            }
        },
        "/results": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Stored results of one respondent, newest first",
                "parameters": [
                    {"type": "string", "description": "respondent id", "name": "respondentId", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/model.SurveyResult"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/results/{sessionId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Stored result of a completed session",
                "parameters": [
                    {"type": "string", "description": "session id", "name": "sessionId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SurveyResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "flow.Step": {
            "type": "object",
            "properties": {
                "state": {"type": "string"},
                "question": {"$ref": "#/definitions/model.Question"},
                "followupNumber": {"type": "integer"},
                "completed": {"type": "boolean"},
                "replayed": {"type": "boolean"}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "reason": {"type": "string"},
                "expected": {"type": "string"},
                "question": {"$ref": "#/definitions/model.Question"}
            }
        },
        "model.Question": {
            "type": "object",
            "properties": {
                "question_id": {"type": "string"},
                "question_name": {"type": "string"},
                "title": {"type": "string"},
                "question_text": {"type": "string"},
                "question_description": {"type": "string"},
                "response_type": {"type": "string"},
                "response_name": {"type": "string"},
                "response_options": {"type": "array", "items": {"$ref": "#/definitions/model.ResponseOption"}},
                "justification_text": {"type": "string"},
                "button_text": {"type": "string"}
            }
        },
        "model.ResponseOption": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "object", "properties": {"text": {"type": "string"}}},
                "value": {"type": "string"}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "model.LoginResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "operatorId": {"type": "string"}}
        },
        "model.CreateSessionRequest": {
            "type": "object",
            "properties": {"respondentId": {"type": "string"}}
        },
        "model.CreateSessionResponse": {
            "type": "object",
            "properties": {"sessionId": {"type": "string"}, "token": {"type": "string"}}
        },
        "model.SubmitAnswerRequest": {
            "type": "object",
            "properties": {"questionId": {"type": "string"}, "value": {"type": "string"}}
        },
        "model.AnsweredQuestion": {
            "type": "object",
            "properties": {
                "questionId": {"type": "string"},
                "questionName": {"type": "string"},
                "questionText": {"type": "string"},
                "responseName": {"type": "string"},
                "response": {"type": "string"},
                "assistGenerated": {"type": "boolean"}
            }
        },
        "model.SurveyResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "sessionId": {"type": "string"},
                "respondentId": {"type": "string"},
                "surveyTitle": {"type": "string"},
                "answers": {"type": "array", "items": {"$ref": "#/definitions/model.AnsweredQuestion"}},
                "consent": {"type": "string"},
                "followupCount": {"type": "integer"},
                "startedAt": {"type": "string"},
                "completedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Survey Assist API",
	Description:      "Survey flow engine with consent-gated classification follow-ups",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
