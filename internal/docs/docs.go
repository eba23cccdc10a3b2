// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package docs registers the OpenAPI document served under /swagger.
// Importing it for side effects is enough.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "List upcoming events",
                "parameters": [
                    {"type": "string", "enum": ["all", "concert", "musical", "classical", "festival", "sports"], "name": "category", "in": "query"},
                    {"type": "string", "enum": ["popularity", "latest", "deadline", "price_low", "price_high"], "name": "sort", "in": "query"},
                    {"type": "integer", "minimum": 1, "name": "page", "in": "query"},
                    {"type": "integer", "minimum": 1, "name": "page_size", "in": "query"},
                    {"type": "string", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "304": {"description": "Page unchanged"},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "504": {"description": "Request abandoned before aggregation finished", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Events"],
                "summary": "Get event by id",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Unknown id", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/sources": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Operations"],
                "summary": "Source status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/cache": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["Operations"],
                "summary": "Invalidate the aggregate cache",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "500": {"description": "Snapshot tier could not be cleared", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/health/live": {
            "get": {"produces": ["application/json"], "tags": ["Health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"produces": ["application/json"], "tags": ["Health"], "summary": "Readiness probe", "responses": {"200": {"description": "Ready"}, "503": {"description": "Not ready"}}}
        },
        "/health": {
            "get": {"produces": ["application/json"], "tags": ["Health"], "summary": "Detailed health", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/api.APIError"},
                "meta": {"$ref": "#/definitions/api.APIMeta"}
            }
        },
        "api.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {},
                "request_id": {"type": "string"}
            }
        },
        "api.APIMeta": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "duration_ms": {"type": "integer"},
                "pagination": {"$ref": "#/definitions/api.PaginationMeta"}
            }
        },
        "api.PaginationMeta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "count": {"type": "integer"},
                "total": {"type": "integer"},
                "has_more": {"type": "boolean"}
            }
        },
        "models.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "artist": {"type": "string"},
                "tourName": {"type": "string"},
                "category": {"type": "string", "enum": ["concert", "musical", "classical", "festival", "sports"]},
                "genre": {"type": "string"},
                "dates": {"type": "array", "items": {"type": "string"}},
                "city": {"type": "string"},
                "venueName": {"type": "string"},
                "venueId": {"type": "string"},
                "posterUrl": {"type": "string"},
                "ticketStatus": {"type": "string", "enum": ["upcoming", "presale", "onsale", "soldout"]},
                "ticketOpenDate": {"type": "string"},
                "priceTable": {"type": "object", "additionalProperties": {"type": "integer"}},
                "popularity": {"type": "integer"},
                "description": {"type": "string"},
                "bookingUrl": {"type": "string"},
                "source": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Encore API",
	Description:      "Concert and event listings aggregated from several ticketing sources.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
