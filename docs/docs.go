// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/main.go
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "description": "Returns a bearer token for the /api/v1 routes.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/schedules": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "List schedules",
                "responses": {"200": {"description": "count, schedules"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Create schedule",
                "parameters": [{"description": "Schedule", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateScheduleRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Schedule"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/api/v1/schedules/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Moving feeding_time of a schedule that already fired today lets it fire again today.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Update schedule",
                "parameters": [
                    {"type": "string", "description": "Schedule id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Schedule"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"},
                    "500": {"description": "Internal Server Error"}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Delete schedule",
                "parameters": [{"type": "string", "description": "Schedule id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/api/v1/feeding/activate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "The command outcome is always logged. delivered=false with device_offline=true means the channel was not connected.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["feeding"],
                "summary": "Dispense food now",
                "parameters": [{"description": "Portion and optional schedule", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.ActivateFeedingRequest"}}],
                "responses": {
                    "200": {"description": "message, delivered, device_offline, log"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/api/v1/feeding/stop": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["feeding"],
                "summary": "Stop the dispenser",
                "responses": {"200": {"description": "message, delivered, device_offline, log"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/feeding/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["feeding"],
                "summary": "Feeding history",
                "parameters": [{"type": "integer", "description": "Max entries (default 50, max 500)", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "count, logs"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/api/v1/feeding/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["feeding"],
                "summary": "Feeder status",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket. Sends {\"type\":\"device_status\",\"data\":{...}} every interval (?interval=2s or ?interval_ms=2000, default 1s, max 10s).",
                "tags": ["system"],
                "summary": "Device status stream",
                "parameters": [
                    {"type": "string", "description": "Go duration", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Milliseconds", "name": "interval_ms", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "handlers.CreateScheduleRequest": {
            "type": "object",
            "required": ["feeding_time"],
            "properties": {
                "feeding_time": {"type": "string", "example": "07:30"},
                "portion_size": {"type": "string", "example": "small"},
                "repeat_daily": {"type": "boolean"}
            }
        },
        "handlers.UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "feeding_time": {"type": "string", "example": "18:00"},
                "is_active": {"type": "boolean"},
                "portion_size": {"type": "string", "example": "large"},
                "repeat_daily": {"type": "boolean"}
            }
        },
        "handlers.ActivateFeedingRequest": {
            "type": "object",
            "properties": {
                "portion_size": {"type": "string", "example": "medium"},
                "schedule_id": {"type": "string"}
            }
        },
        "models.Schedule": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "integer"},
                "feeding_time": {"type": "string"},
                "portion_size": {"type": "string"},
                "is_active": {"type": "boolean"},
                "repeat_daily": {"type": "boolean"},
                "last_triggered": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
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
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Feeder API",
	Description:      "Schedules, manual control and history for an MQTT-connected pet feeder.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
