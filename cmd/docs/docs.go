// Package docs holds the swagger template served at /swagger. Regenerate with
// `swag init -g cmd/vibepay_backend/main.go -o cmd/docs`.
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
        "/payments/orders": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Open a purchase",
                "parameters": [{"in": "body", "name": "order", "required": true, "schema": {"$ref": "#/definitions/dto.CreateOrderRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CreateOrderResponse"}}}
            }
        },
        "/payments/orders/{orderID}/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Get the status of an order",
                "parameters": [{"type": "string", "in": "path", "name": "orderID", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TransactionResponse"}}}
            }
        },
        "/payments/verify": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Settle a checkout callback",
                "parameters": [{"in": "body", "name": "callback", "required": true, "schema": {"$ref": "#/definitions/dto.SettleRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TransactionResponse"}}}
            }
        },
        "/payments/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "List the caller's ledger rows",
                "parameters": [
                    {"type": "integer", "in": "query", "name": "page"},
                    {"type": "integer", "in": "query", "name": "limit"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/payments/transactions/{transactionID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Get a ledger row with its commission and refund rows",
                "parameters": [{"type": "string", "in": "path", "name": "transactionID", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/payments/transactions/{transactionID}/refund": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Refund a completed purchase",
                "parameters": [
                    {"type": "string", "in": "path", "name": "transactionID", "required": true},
                    {"in": "body", "name": "refund", "required": true, "schema": {"$ref": "#/definitions/dto.RefundRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "dto.CreateOrderRequest": {
            "type": "object",
            "required": ["amount", "currencyCode", "projectID"],
            "properties": {
                "amount": {"type": "integer"},
                "currencyCode": {"type": "string"},
                "projectID": {"type": "string"}
            }
        },
        "dto.CreateOrderResponse": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "currencyCode": {"type": "string"},
                "keyID": {"type": "string"},
                "orderID": {"type": "string"},
                "receiptID": {"type": "string"},
                "status": {"type": "string"},
                "transactionID": {"type": "string"}
            }
        },
        "dto.SettleRequest": {
            "type": "object",
            "required": ["razorpay_order_id", "razorpay_payment_id", "razorpay_signature"],
            "properties": {
                "razorpay_order_id": {"type": "string"},
                "razorpay_payment_id": {"type": "string"},
                "razorpay_signature": {"type": "string"}
            }
        },
        "dto.RefundRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "amount": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "dto.TransactionResponse": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "buyerID": {"type": "string"},
                "commissionAmount": {"type": "integer"},
                "currencyCode": {"type": "string"},
                "kind": {"type": "string"},
                "projectID": {"type": "string"},
                "sellerAmount": {"type": "integer"},
                "sellerID": {"type": "string"},
                "status": {"type": "string"},
                "transactionID": {"type": "string"}
            }
        }
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "VibeCoder Payments API",
	Description:      "Payment settlement, commission and refund service for the VibeCoder marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
