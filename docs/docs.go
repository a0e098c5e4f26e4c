// Package docs registers the OpenAPI document served at /swagger/*any.
// Regenerate with: swag init -g cmd/main.go -o docs
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
        "/api/v1/stocks": {
            "get": {
                "description": "Returns one page of the instrument master data (active and inactive) without prices",
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "List instruments",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Page size (max 100)", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.BaseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stocks/prices": {
            "get": {
                "description": "Returns one page of eligible active instruments with their latest quote",
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "List stocks with live prices",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Page size (max 100)", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.BaseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "504": {"description": "Timeout", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stocks/indices": {
            "get": {
                "description": "Returns index snapshots; empty unless index quotes are enabled for the provider tier",
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "List market indices",
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.BaseResponse"}},
                    "504": {"description": "Timeout", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stocks/trending": {
            "get": {
                "description": "Ranks eligible instruments by volume, then change percent",
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "List trending stocks",
                "parameters": [
                    {"type": "integer", "default": 10, "description": "Maximum records (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.BaseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "504": {"description": "Timeout", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stocks/market-summary": {
            "get": {
                "description": "Indices, top trending stocks, active instrument count and market status",
                "produces": ["application/json"],
                "tags": ["stocks"],
                "summary": "Market summary",
                "responses": {
                    "200": {"description": "Success", "schema": {"$ref": "#/definitions/dto.BaseResponse"}},
                    "504": {"description": "Timeout", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Always returns OK if the service is running",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/readyz": {
            "get": {
                "description": "Returns ready if Postgres and the cache store are reachable",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object"}}
                }
            }
        }
    },
    "definitions": {
        "dto.BaseResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "message": {"type": "string", "example": "12 records"},
                "data": {},
                "timestamp": {"type": "string"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "invalid page"},
                "error": {"type": "string", "example": "page must be >= 0"},
                "timestamp": {"type": "string"}
            }
        },
        "models.PriceRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1},
                "symbol": {"type": "string", "example": "AAPL"},
                "name": {"type": "string", "example": "Apple Inc."},
                "exchange": {"type": "string", "example": "NASDAQ"},
                "sector": {"type": "string", "example": "Technology"},
                "current_price": {"type": "number", "example": 189.84},
                "previous_close": {"type": "number", "example": 187.15},
                "change": {"type": "number", "example": 2.69},
                "change_percent": {"type": "number", "example": 1.44},
                "day_high": {"type": "number", "example": 190.32},
                "day_low": {"type": "number", "example": 186.9},
                "volume": {"type": "integer", "example": 0},
                "market_cap": {"type": "number", "example": 2950000},
                "currency": {"type": "string", "example": "USD"},
                "last_updated": {"type": "string"},
                "active": {"type": "boolean", "example": true}
            }
        },
        "models.IndexRecord": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string", "example": "^GSPC"},
                "name": {"type": "string", "example": "S&P 500"},
                "current_price": {"type": "number", "example": 5321.41},
                "change": {"type": "number", "example": 12.5},
                "change_percent": {"type": "number", "example": 0.24},
                "previous_close": {"type": "number", "example": 5308.91},
                "volume": {"type": "integer", "example": 0},
                "exchange": {"type": "string", "example": "NYSE"}
            }
        },
        "models.TrendingRecord": {
            "type": "object",
            "properties": {
                "symbol": {"type": "string", "example": "NVDA"},
                "name": {"type": "string", "example": "NVIDIA Corporation"},
                "exchange": {"type": "string", "example": "NASDAQ"},
                "current_price": {"type": "number", "example": 120.5},
                "change_percent": {"type": "number", "example": 6.2},
                "volume": {"type": "integer", "example": 2000000},
                "trend_reason": {"type": "string", "example": "PRICE_SURGE_HIGH_VOLUME"}
            }
        },
        "models.MarketSummary": {
            "type": "object",
            "properties": {
                "indices": {"type": "array", "items": {"$ref": "#/definitions/models.IndexRecord"}},
                "trending_stocks": {"type": "array", "items": {"$ref": "#/definitions/models.TrendingRecord"}},
                "total_active_stocks": {"type": "integer", "example": 50},
                "market_status": {"type": "string", "example": "OPEN"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "stockpulse API",
	Description:      "Live stock prices, trending stocks and market summary over instrument master data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
