// Package docs holds the Swagger document served under /swagger. It follows
// the swag annotations on the handlers; docs_test.go fails when a routed
// annotation is missing here.
//
//go:generate swag init -g main.go -d ../ -o . --outputTypes go
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
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Component health",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthCheck"}}}
            }
        },
        "/share/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Get a trip by share code",
                "parameters": [{"type": "string", "description": "Share code", "name": "code", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "404": {"description": "Unknown share code", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        },
        "/trips": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Create and price a trip",
                "parameters": [{"description": "Destination, dates and travelers", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.TripCreateRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "502": {"description": "Pricing search failed", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        },
        "/trips/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Get a trip",
                "parameters": [{"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Edit and reprice a trip",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.TripEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "403": {"description": "Organizer only", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        },
        "/trips/{id}/claim": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Claim an unclaimed trip",
                "parameters": [{"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}}}
            }
        },
        "/trips/{id}/share-email": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["trips"],
                "summary": "Email the share link",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true},
                    {"description": "Recipient", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ShareEmailRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "503": {"description": "Email not configured", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        },
        "/trips/{id}/payments": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Mark a traveler as paid",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true},
                    {"description": "Traveler", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MarkPaidRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "410": {"description": "Share link expired", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        },
        "/trips/{id}/itinerary/generate": {
            "post": {
                "produces": ["application/json"],
                "tags": ["itinerary"],
                "summary": "Start itinerary generation",
                "description": "Queues generation for a pending trip and returns immediately. Progress arrives on the change feed.",
                "parameters": [{"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "409": {"description": "Trip is not pending", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        },
        "/trips/{id}/itinerary/days/{day}/activities": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["itinerary"],
                "summary": "Insert an activity",
                "description": "Organizer only, once every traveler has paid.",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Day number", "name": "day", "in": "path", "required": true},
                    {"description": "Position and activity", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddActivityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "403": {"description": "Organizer only", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "409": {"description": "Not everyone has paid", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        },
        "/trips/{id}/itinerary/days/{day}/activities/{index}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["itinerary"],
                "summary": "Remove an activity",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Day number", "name": "day", "in": "path", "required": true},
                    {"type": "integer", "description": "Activity index", "name": "index", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}}}
            }
        },
        "/trips/{id}/reactions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reactions"],
                "summary": "Reaction counts for a trip",
                "parameters": [{"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reactions"],
                "summary": "Toggle a reaction on an activity",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "id", "in": "path", "required": true},
                    {"description": "Activity position and reaction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.ReactRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StandardResponse"}}}
            }
        },
        "/ws": {
            "get": {
                "tags": ["realtime"],
                "summary": "Watch a trip",
                "description": "Upgrades to a WebSocket streaming snapshot and reaction frames for one trip. Anonymous viewers are allowed.",
                "parameters": [
                    {"type": "string", "description": "Trip ID", "name": "trip", "in": "query"},
                    {"type": "string", "description": "Share code", "name": "share", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.StandardResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.StandardResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.AddActivityRequest": {
            "type": "object",
            "required": ["index"],
            "properties": {
                "index": {"type": "integer", "minimum": 0},
                "activity": {"type": "object"}
            }
        },
        "handlers.MarkPaidRequest": {
            "type": "object",
            "required": ["traveler"],
            "properties": {"traveler": {"type": "string"}}
        },
        "handlers.ShareEmailRequest": {
            "type": "object",
            "required": ["to"],
            "properties": {
                "to": {"type": "string"},
                "sender_name": {"type": "string"}
            }
        },
        "types.HealthCheck": {"type": "object"},
        "types.ReactRequest": {
            "type": "object",
            "required": ["day", "index", "reaction"],
            "properties": {
                "day": {"type": "integer", "minimum": 1},
                "index": {"type": "integer", "minimum": 0},
                "reaction": {"type": "string", "enum": ["up", "down"]}
            }
        },
        "types.StandardResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "object"},
                "meta": {"type": "object"}
            }
        },
        "types.TripCreateRequest": {"type": "object"},
        "types.TripEditRequest": {"type": "object"}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "TripSync API",
	Description:      "Shared trip state, payments, reactions and the per-trip change feed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
