// Package docs serves the OpenAPI description of the TaskFlow API
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created, session cookie set"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Signed in, session cookie set"},
                    "401": {"description": "Invalid email or password", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {"200": {"description": "Session closed, cookie cleared"}}
            }
        },
        "/auth/session": {
            "get": {
                "tags": ["auth"],
                "summary": "Current session identity",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "Identity", "schema": {"$ref": "#/definitions/Identity"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["projects"],
                "summary": "List projects, newest first",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"in": "query", "name": "with_counts", "type": "boolean", "description": "Include task counts"}
                ],
                "responses": {
                    "200": {"description": "Projects", "schema": {"type": "array", "items": {"$ref": "#/definitions/Project"}}}
                }
            },
            "post": {
                "tags": ["projects"],
                "summary": "Create a project",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ProjectInput"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/projects/{id}": {
            "parameters": [
                {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true}
            ],
            "get": {
                "tags": ["projects"],
                "summary": "Get a project",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "Project", "schema": {"$ref": "#/definitions/Project"}},
                    "404": {"description": "Project not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["projects"],
                "summary": "Update a project",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ProjectInput"}}
                ],
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "Project not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["projects"],
                "summary": "Delete a project, keeping its tasks",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Project not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/projects/{id}/tasks": {
            "get": {
                "tags": ["projects"],
                "summary": "List the tasks of a project",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true}
                ],
                "responses": {
                    "200": {"description": "Tasks", "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["tasks"],
                "summary": "List tasks, newest first",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"in": "query", "name": "project_id", "type": "string", "format": "uuid"}
                ],
                "responses": {
                    "200": {"description": "Tasks", "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}}
                }
            },
            "post": {
                "tags": ["tasks"],
                "summary": "Create a task",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/TaskInput"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks/stats": {
            "get": {
                "tags": ["tasks"],
                "summary": "Task statistics",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "Stats", "schema": {"$ref": "#/definitions/TaskStats"}}
                }
            }
        },
        "/tasks/{id}": {
            "parameters": [
                {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true}
            ],
            "get": {
                "tags": ["tasks"],
                "summary": "Get a task",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "Task", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["tasks"],
                "summary": "Update a task",
                "security": [{"SessionCookie": []}],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/TaskInput"}}
                ],
                "responses": {
                    "200": {"description": "Updated"},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["tasks"],
                "summary": "Delete a task",
                "security": [{"SessionCookie": []}],
                "responses": {
                    "200": {"description": "Deleted"},
                    "404": {"description": "Task not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["dashboard"],
                "summary": "Stats, recent tasks and projects with counts",
                "security": [{"SessionCookie": []}],
                "responses": {"200": {"description": "Dashboard"}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string", "example": "Ada Lovelace"},
                "email": {"type": "string", "example": "ada@example.com"},
                "password": {"type": "string", "example": "correct-horse"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Identity": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "image": {"type": "string"}
            }
        },
        "ProjectInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 100},
                "description": {"type": "string", "maxLength": 500},
                "color": {"type": "string", "example": "#6366f1"}
            }
        },
        "Project": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "color": {"type": "string"},
                "owner_id": {"type": "string", "format": "uuid"},
                "task_count": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "TaskInput": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "description": {"type": "string", "maxLength": 2000},
                "status": {"type": "string", "enum": ["todo", "in_progress", "completed"]},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
                "due_date": {"type": "string", "x-nullable": true},
                "project_id": {"type": "string", "format": "uuid", "x-nullable": true}
            }
        },
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"},
                "project_id": {"type": "string", "format": "uuid"},
                "owner_id": {"type": "string", "format": "uuid"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "TaskStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "completed": {"type": "integer"},
                "in_progress": {"type": "integer"},
                "todo": {"type": "integer"},
                "overdue": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Browsers send the session cookie. Other clients send 'Bearer' followed by the session token."
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "TaskFlow API",
	Description:      "Personal task and project management with per-user ownership",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
