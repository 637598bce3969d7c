package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lifeline API",
        "description": "Donation and request lifecycle service for the Lifeline coordination platform",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Donations", "description": "Donation intents and matches"},
        {"name": "Requests", "description": "Organ and fund requests"},
        {"name": "Notifications", "description": "Role-scoped notification feed"},
        {"name": "Certificates", "description": "Donation certificates"},
        {"name": "Admin", "description": "Stats and ledger exports"}
    ],
    "paths": {
        "/donations/intents": {
            "get": {
                "tags": ["Donations"],
                "summary": "List donation intents",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "organ_type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Donations"],
                "summary": "Submit a donation intent",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIntentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/donations/intents/{id}": {
            "get": {
                "tags": ["Donations"],
                "summary": "Get donation intent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/donations/intents/{id}/verify": {
            "post": {
                "tags": ["Donations"],
                "summary": "Verify a donation intent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/donations/intents/{id}/certificate": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Issue a signed certificate download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Certificate not ready"}
                }
            }
        },
        "/donations/matches": {
            "get": {
                "tags": ["Donations"],
                "summary": "List matches",
                "parameters": [
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Donations"],
                "summary": "Create a match for a verified intent",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMatchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Intent not matchable"}
                }
            }
        },
        "/donations/matches/{id}": {
            "get": {
                "tags": ["Donations"],
                "summary": "Get match",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/donations/matches/{id}/accept": {
            "post": {
                "tags": ["Donations"],
                "summary": "Record the acting party's acceptance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Match past acceptance"}
                }
            }
        },
        "/donations/matches/{id}/payment": {
            "post": {
                "tags": ["Donations"],
                "summary": "Confirm payment for a confirmed match",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Match not confirmed"}
                }
            }
        },
        "/donations/matches/{id}/complete": {
            "post": {
                "tags": ["Donations"],
                "summary": "Complete a paid donation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Payment not settled"}
                }
            }
        },
        "/requests/organs": {
            "get": {
                "tags": ["Requests"],
                "summary": "List organ requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "urgency", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Submit an organ request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOrganRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests/organs/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get organ request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/requests/organs/{id}/decision": {
            "post": {
                "tags": ["Requests"],
                "summary": "Accept or reject an organ request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideOrganRequestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request already decided"}
                }
            }
        },
        "/requests/organs/{id}/donor": {
            "post": {
                "tags": ["Requests"],
                "summary": "Declare a donor for an accepted organ request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeclareDonorMatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request not accepted"}
                }
            }
        },
        "/requests/funds": {
            "get": {
                "tags": ["Requests"],
                "summary": "List fund requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Submit a fund request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFundRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requests/funds/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get fund request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/requests/funds/{id}/decision": {
            "post": {
                "tags": ["Requests"],
                "summary": "Approve or reject a fund request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideFundRequestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request already decided"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications for the acting role",
                "parameters": [
                    {"name": "unread", "in": "query", "type": "boolean"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as read",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/notifications/read-all": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark every notification for the acting role as read",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Unread notification badge for the acting role",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Aggregated system metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/exports/{kind}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export a ledger report",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["donations", "matches", "fund-requests"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "CreateIntentRequest": {
            "type": "object",
            "properties": {
                "organ_type": {"type": "string"},
                "donor_hospital_name": {"type": "string"}
            },
            "required": ["organ_type", "donor_hospital_name"]
        },
        "CreateMatchRequest": {
            "type": "object",
            "properties": {
                "intent_id": {"type": "string"},
                "request_id": {"type": "string"},
                "patient_id": {"type": "string"},
                "patient_name": {"type": "string"},
                "patient_hospital_name": {"type": "string"}
            },
            "required": ["intent_id", "patient_id", "patient_name", "patient_hospital_name"]
        },
        "CreateOrganRequestRequest": {
            "type": "object",
            "properties": {
                "organ_type": {"type": "string"},
                "urgency": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]},
                "notes": {"type": "string"}
            },
            "required": ["organ_type", "urgency"]
        },
        "DecideOrganRequestRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["ACCEPTED", "REJECTED"]}
            },
            "required": ["decision"]
        },
        "DeclareDonorMatchRequest": {
            "type": "object",
            "properties": {
                "donor_id": {"type": "string"},
                "donor_name": {"type": "string"}
            },
            "required": ["donor_id", "donor_name"]
        },
        "CreateFundRequestRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "reason": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["amount", "reason"]
        },
        "DecideFundRequestRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVED", "REJECTED"]}
            },
            "required": ["decision"]
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
