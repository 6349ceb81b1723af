// Package docs registers the OpenAPI description served at /swagger/.
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
        "/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "List active tournaments",
                "responses": {
                    "200": {"description": "{success, tournaments}"},
                    "500": {"description": "Internal Server Error"}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Create a tournament",
                "parameters": [
                    {"description": "name, date (YYYY-MM-DD), optional banner URL", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateTournamentInput"}}
                ],
                "responses": {
                    "201": {"description": "{success, tournament}"},
                    "400": {"description": "validation error"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/tournaments/ongoing": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "List ongoing tournaments",
                "responses": {
                    "200": {"description": "{success, tournaments}"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/tournaments/{id}/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Register the caller for a tournament",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "{success, message, tournament}"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "tournament or player not found"},
                    "409": {"description": "already registered"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/tournaments/{id}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Change tournament status",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "id", "in": "path", "required": true},
                    {"description": "upcoming | ongoing | completed", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.updateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "{success, tournament}"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/tournaments/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Soft-delete a tournament",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "{success, message}"},
                    "404": {"description": "Not Found"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/bookings/available-slots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Free time slots for a date",
                "parameters": [
                    {"type": "string", "description": "Date, YYYY-MM-DD", "name": "date", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "{success, date, data}"},
                    "400": {"description": "Bad Request"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/bookings": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Book a time slot",
                "parameters": [
                    {"description": "name, phoneNumber, date, timeSlot", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateBookingInput"}}
                ],
                "responses": {
                    "201": {"description": "{success, message, booking}"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "slot already booked"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/bookings/{orderId}/cancel": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Cancel a booking",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "orderId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "{success, booking}"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "already cancelled"}
                }
            }
        }
    },
    "definitions": {
        "handlers.updateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["upcoming", "ongoing", "completed"]}
            }
        },
        "services.CreateBookingInput": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "name": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "timeSlot": {"type": "string"}
            }
        },
        "services.CreateTournamentInput": {
            "type": "object",
            "properties": {
                "banner": {"type": "string"},
                "date": {"type": "string"},
                "name": {"type": "string"}
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
	Title:            "FieldBook API",
	Description:      "Football field booking and tournament registration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
