// Package docs is generated by swag from the handler annotations.
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
        "/health": {
            "get": {
                "description": "Reports session state, endpoint counts and the last device list sync.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/auth/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register an operator",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Issue an API token",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/switches": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["switches"],
                "summary": "List switches",
                "responses": {
                    "200": {"description": "count, switches", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/switches/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["switches"],
                "summary": "Get a switch",
                "parameters": [
                    {"type": "string", "description": "Endpoint id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.SwitchView"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "On writes the switch's mode to the device; off switches the device off unless it is known to be in another mode.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["switches"],
                "summary": "Turn a switch on or off",
                "parameters": [
                    {"type": "string", "description": "Endpoint id", "name": "id", "in": "path", "required": true},
                    {"description": "Desired state", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SetSwitchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.SwitchView"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/devices": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Devices with their cached mode and the switches standing for them.",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "responses": {
                    "200": {"description": "count, devices", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/devices/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Fetches the binding list now and creates or removes switches accordingly.",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Sync devices",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.SyncResult"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Filter the audit log by date, type and device. A date-only 'to' is treated as end of day inclusive.",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List mode events",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"enum": ["MODE_CHANGE", "MODE_SET", "WRITE_FAILED", "UNKNOWN_CODE", "ENDPOINT_ADDED", "ENDPOINT_REMOVED"], "type": "string", "description": "Event type", "name": "type", "in": "query"},
                    {"type": "string", "description": "Device id (did)", "name": "device", "in": "query"},
                    {"type": "integer", "description": "Maximum number of events (capped at 1000)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "WebSocket. Sends a snapshot of every switch, then one message per change (state, added, removed).",
                "tags": ["switches"],
                "summary": "Switch change stream",
                "parameters": [
                    {"type": "integer", "description": "Per-connection queue size (1-1024)", "name": "buffer", "in": "query"},
                    {"type": "string", "description": "Bearer token when headers cannot be set", "name": "access_token", "in": "query"}
                ],
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string", "example": "secret"},
                "username": {"type": "string", "example": "operator"}
            }
        },
        "handlers.SetSwitchRequest": {
            "type": "object",
            "required": ["on"],
            "properties": {
                "on": {"description": "Desired state. false switches the device off unless it is known to be in another mode, in which case nothing is written.", "type": "boolean", "example": true}
            }
        },
        "service.SwitchView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "device_id": {"type": "string"},
                "device_name": {"type": "string"},
                "mode": {"type": "string"},
                "on": {"type": "boolean"},
                "poll": {"$ref": "#/definitions/bridge.PollStatus"}
            }
        },
        "service.SyncResult": {
            "type": "object",
            "properties": {
                "created": {"type": "integer"},
                "devices": {"type": "integer"},
                "kept": {"type": "integer"},
                "removed": {"type": "integer"}
            }
        },
        "bridge.PollStatus": {
            "type": "object",
            "properties": {
                "last_error": {"type": "string"},
                "last_poll": {"type": "string"},
                "last_success": {"type": "string"},
                "next_poll": {"type": "string"},
                "state": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Heatzy Bridge API",
	Description:      "Exposes every (device, mode) pair of a Heatzy account as an on/off switch.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
