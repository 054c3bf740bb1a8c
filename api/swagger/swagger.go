// Package swagger registers the hand-maintained OpenAPI document served by
// gin-swagger under /docs. Paths assume the default /sjdb base path.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ykps-sjdb API",
        "description": "Submission intake and moderator retrieval",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Bearer <token> from the moderator allow-list"
        }
    },
    "tags": [
        {"name": "Submissions", "description": "Report intake"},
        {"name": "Moderation", "description": "Bearer-gated retrieval"},
        {"name": "Meta", "description": "Liveness and version"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Meta"],
                "summary": "Liveness probe",
                "operationId": "health",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/version": {
            "get": {
                "tags": ["Meta"],
                "summary": "Version banner",
                "operationId": "version",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Banner text", "schema": {"type": "string"}}
                }
            }
        },
        "/sjdb/submit": {
            "post": {
                "tags": ["Submissions"],
                "summary": "File a submission",
                "description": "anon=yes publishes the caller's name (requires the login proxy identity), anon=no stores no name, anon=axolotl stores a fixed placeholder.",
                "operationId": "submit",
                "consumes": ["multipart/form-data", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "type", "in": "formData", "type": "string", "required": true},
                    {"name": "origin", "in": "formData", "type": "string", "required": true},
                    {"name": "anon", "in": "formData", "type": "string", "required": true, "enum": ["yes", "no", "axolotl"]},
                    {"name": "text", "in": "formData", "type": "string", "required": true},
                    {"name": "file", "in": "formData", "type": "file", "required": false}
                ],
                "responses": {
                    "201": {"description": "Stored", "schema": {"$ref": "#/definitions/Submission"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "413": {"description": "Request too large", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "507": {"description": "Insufficient storage", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/sjdb/submissions": {
            "get": {
                "tags": ["Moderation"],
                "summary": "List submissions",
                "operationId": "listSubmissions",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Record names, oldest first", "schema": {"$ref": "#/definitions/SubmissionList"}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/sjdb/submissions/{name}": {
            "get": {
                "tags": ["Moderation"],
                "summary": "Read a submission record",
                "operationId": "getSubmission",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Record", "schema": {"$ref": "#/definitions/Submission"}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "No such record", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Submissions"],
                "summary": "Withdraw a submission",
                "description": "Recognized but not offered yet; always answers 501.",
                "operationId": "withdrawSubmission",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "name", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "501": {"description": "Not implemented", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/sjdb/files/{name}": {
            "get": {
                "tags": ["Moderation"],
                "summary": "Download an attachment",
                "operationId": "getFile",
                "produces": ["application/octet-stream"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "name", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File bytes", "schema": {"type": "file"}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "No such file", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Submission": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "origin": {"type": "string"},
                "anon_mode": {"type": "string", "enum": ["revealed", "hidden", "pseudonymous"]},
                "uname": {"type": "string", "x-nullable": true},
                "ts": {"type": "string", "example": "1700000000"},
                "text": {"type": "string"},
                "file": {"type": "string", "x-nullable": true},
                "sub": {"type": "string", "x-nullable": true}
            }
        },
        "SubmissionList": {
            "type": "object",
            "properties": {
                "submissions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
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
