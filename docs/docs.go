// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/guttosm/varpulse"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/runs": {
            "get": {
                "description": "Returns the most recent runs, newest first",
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List generation runs",
                "parameters": [
                    {"type": "integer", "example": 20, "description": "Maximum runs returned", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.RunListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Starts an asynchronous run that generates products, trades and risks. Omitted fields use the server defaults.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Start a generation run",
                "parameters": [
                    {"description": "Run overrides", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.RunRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.RunResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "A run is already in progress", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/runs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get a generation run",
                "parameters": [
                    {"type": "string", "description": "Run id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.RunResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Always returns OK if the service is running",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Returns ready if the run store is reachable",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error_details": {"type": "string"},
                "message": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "dto.RunRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "example": "columnar-files"},
                "product_count": {"type": "integer", "example": 100},
                "trade_count": {"type": "integer", "example": 100000},
                "vector_length": {"type": "integer", "example": 260}
            }
        },
        "dto.RunResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "finished_at": {"type": "string"},
                "id": {"type": "string", "example": "0f8fad5b-d9cb-469f-a165-70867728950e"},
                "mode": {"type": "string", "example": "columnar-files"},
                "product_count": {"type": "integer", "example": 100},
                "products_written": {"type": "integer"},
                "risks_written": {"type": "integer"},
                "started_at": {"type": "string"},
                "status": {"type": "string", "example": "running"},
                "trade_count": {"type": "integer", "example": 100000},
                "trades_written": {"type": "integer"},
                "vector_length": {"type": "integer", "example": 260}
            }
        },
        "dto.RunListResponse": {
            "type": "object",
            "properties": {
                "runs": {"type": "array", "items": {"$ref": "#/definitions/dto.RunResponse"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "varpulse API",
	Description:      "Parallel VaR dataset generator: products, trades and risks.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
