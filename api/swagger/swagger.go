package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UKS ADP API",
        "description": "Vaccination campaign scheduling and guardian response tracking",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "VaccinationSchedules", "description": "Campaign orchestration, aggregation and results"},
        {"name": "CampaignClasses", "description": "Class ↔ campaign associations"},
        {"name": "CampaignStudents", "description": "Per-student participation rows"},
        {"name": "Authentication", "description": "Login, refresh and logout"}
    ],
    "paths": {
        "/vaccination-schedules": {
            "post": {
                "tags": ["VaccinationSchedules"],
                "summary": "Create campaign and fan out to target students",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No resolvable target students"}
                }
            },
            "get": {
                "tags": ["VaccinationSchedules"],
                "summary": "List raw participation rows",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vaccination-schedules/events": {
            "get": {
                "tags": ["VaccinationSchedules"],
                "summary": "List campaigns with live aggregated counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vaccination-schedules/events/{eventId}": {
            "get": {
                "tags": ["VaccinationSchedules"],
                "summary": "Campaign aggregation with per-class breakdown",
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown campaign"}
                }
            },
            "delete": {
                "tags": ["VaccinationSchedules"],
                "summary": "Delete campaign while all rows are still pending",
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "409": {"description": "Responses already recorded"}
                }
            }
        },
        "/vaccination-schedules/events/{eventId}/classes/{classId}": {
            "get": {
                "tags": ["VaccinationSchedules"],
                "summary": "Participation rows of one class within a campaign",
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vaccination-schedules/events/{eventId}/classes/{classId}/export": {
            "get": {
                "tags": ["VaccinationSchedules"],
                "summary": "Download one class roster as CSV or PDF",
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Class not part of event"}
                }
            }
        },
        "/vaccination-schedules/events/{eventId}/export": {
            "get": {
                "tags": ["VaccinationSchedules"],
                "summary": "Download campaign recap as CSV or PDF",
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/vaccination-schedules/{id}/approve": {
            "put": {
                "tags": ["VaccinationSchedules"],
                "summary": "Approve a pending participation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Row already finalized"}
                }
            }
        },
        "/vaccination-schedules/{id}/cancel": {
            "put": {
                "tags": ["VaccinationSchedules"],
                "summary": "Reject a pending participation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CancelScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Row already finalized"}
                }
            }
        },
        "/vaccination-schedules/{id}/result": {
            "put": {
                "tags": ["VaccinationSchedules"],
                "summary": "Record vaccination result for an approved participation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateResultRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Row already finalized"},
                    "412": {"description": "Result requires an approved participation"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        }
    },
    "definitions": {
        "CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "scheduled_date": {"type": "string"},
                "scheduled_time": {"type": "string"},
                "location": {"type": "string"},
                "doctor_name": {"type": "string"},
                "category": {"type": "string"},
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "grade_level": {"type": "string"}
            },
            "required": ["title", "scheduled_date", "doctor_name", "category"]
        },
        "CancelScheduleRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "UpdateResultRequest": {
            "type": "object",
            "properties": {
                "result": {"type": "string"},
                "notes": {"type": "string"},
                "recommendations": {"type": "string"},
                "follow_up_required": {"type": "boolean"},
                "follow_up_date": {"type": "string"}
            },
            "required": ["result"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "StatusCounts": {
            "type": "object",
            "properties": {
                "total_students": {"type": "integer"},
                "approved_count": {"type": "integer"},
                "pending_count": {"type": "integer"},
                "rejected_count": {"type": "integer"},
                "completed_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
