// Package docs registers the ONE OS API description with swag.
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
        "/api/auth/register": {"post": {"tags": ["auth"], "summary": "Register a user", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/api/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Log out", "responses": {"200": {"description": "OK"}}}},
        "/api/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}},
        "/api/clients": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "List clients", "parameters": [{"type": "string", "description": "all|active|at_risk|onboarding|paused|archived", "name": "tab", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Create client", "responses": {"201": {"description": "Created"}}}
        },
        "/api/clients/counts": {"get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Client aggregate counts", "responses": {"200": {"description": "OK"}}}},
        "/api/clients/utilization": {"get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Client utilization", "responses": {"200": {"description": "OK"}}}},
        "/api/clients/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Get client", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Update client", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/clients/{id}/archive": {"post": {"security": [{"BearerAuth": []}], "tags": ["clients"], "summary": "Archive client", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/clients/{id}/growth-metrics": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["growth"], "summary": "List weekly growth metrics", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["growth"], "summary": "Record weekly growth metrics", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/api/scoring/health": {"post": {"security": [{"BearerAuth": []}], "tags": ["growth"], "summary": "Compute a health score", "responses": {"200": {"description": "OK"}}}},
        "/api/videos": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["production"], "summary": "List videos", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["production"], "summary": "Add a video to the pipeline", "responses": {"201": {"description": "Created"}}}
        },
        "/api/videos/{id}/stage": {"put": {"security": [{"BearerAuth": []}], "tags": ["production"], "summary": "Move a video to another stage", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/campaigns": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["production"], "summary": "List campaigns", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["production"], "summary": "Create campaign", "responses": {"201": {"description": "Created"}}}
        },
        "/api/campaigns/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["production"], "summary": "Get campaign", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/kpis": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "List KPIs", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "Create KPI", "responses": {"201": {"description": "Created"}}}
        },
        "/api/kpis/{id}/values": {"put": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "Set a weekly KPI value", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/scorecard": {"get": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "Weekly scorecard", "parameters": [{"type": "integer", "name": "weeks", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/api/rocks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "List rocks", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "Create rock", "responses": {"201": {"description": "Created"}}}
        },
        "/api/rocks/{id}/status": {"put": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "Update rock status", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/issues": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "List issues", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "Create issue", "responses": {"201": {"description": "Created"}}}
        },
        "/api/issues/{id}/solve": {"post": {"security": [{"BearerAuth": []}], "tags": ["eos"], "summary": "Solve issue", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/ws": {"get": {"security": [{"BearerAuth": []}], "tags": ["realtime"], "summary": "Realtime change feed", "responses": {"101": {"description": "Switching Protocols"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ONE OS API",
	Description:      "Agency dashboard backend: clients, growth health scores, production pipeline and EOS scorecard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
