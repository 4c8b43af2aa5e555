// Package docs registers the OpenAPI description of the REST surface with
// swag. Regenerate with `swag init -g cmd/server/main.go -o internal/transport/rest/docs`
// after touching the handler annotations.
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
        "/stakes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List the accepted stakes",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/cards": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cards"],
                "summary": "List the card catalog",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get a session snapshot",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/leaderboard/{bid}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["leaderboard"],
                "summary": "Top winners for a stake",
                "parameters": [
                    {"type": "integer", "description": "Stake", "name": "bid", "in": "path", "required": true},
                    {"type": "integer", "description": "Number of entries (max 100)", "name": "top", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/leaderboard/{bid}/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["leaderboard"],
                "summary": "Caller's rank for a stake",
                "parameters": [
                    {"type": "integer", "description": "Stake", "name": "bid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"},
                    "503": {"description": "Service Unavailable"}
                }
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
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Bingo Hall API",
	Description:      "Real-time multiplayer bingo sessions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
