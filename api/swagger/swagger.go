package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exercise Status API",
        "description": "Status-file round trip for exercise grading: export submission bundles, re-upload edited grade spreadsheets",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Tutor login"},
        {"name": "Assignments", "description": "Gradable subject snapshots"},
        {"name": "Exports", "description": "Submission bundle generation and download"},
        {"name": "Uploads", "description": "Edited status-file archives"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate tutor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/assignments/{id}/members": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Current grading state of every subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Assignment not found"}
                }
            }
        },
        "/assignments/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Build a ZIP bundle of submissions and grading state",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Bundle created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Assignment not found"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a bundle via its signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["application/zip"],
                "responses": {
                    "200": {"description": "Bundle stream"},
                    "401": {"description": "Invalid or expired link"}
                }
            }
        },
        "/assignments/{id}/upload": {
            "post": {
                "tags": ["Uploads"],
                "summary": "Upload an edited status-file archive",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "archive", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Pipeline outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing archive"}
                }
            }
        },
        "/assignments/{id}/upload/status": {
            "get": {
                "tags": ["Uploads"],
                "summary": "Whether a processed upload already ran",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["login", "password"],
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UploadResult": {
            "type": "object",
            "properties": {
                "stage": {"type": "string"},
                "updatesApplied": {"type": "boolean"},
                "appliedCount": {"type": "integer"},
                "failedSubjects": {"type": "array", "items": {"type": "string"}},
                "feedbackFiles": {"type": "integer"},
                "securityEvents": {"type": "integer"},
                "message": {"type": "string"}
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
