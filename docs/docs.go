// Package docs registers the OpenAPI document served under /swagger. Keep it
// in step with the @Router annotations in internal/delivery/http.
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
        "/orders": {
            "post": {
                "description": "Creates or merges an order pushed by the peer. The order's id becomes the local external id.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "ReceiveOrder",
                "operationId": "receive-order",
                "parameters": [
                    {"type": "string", "description": "peer api key", "name": "X-API-KEY", "in": "header", "required": true},
                    {"type": "string", "description": "hex HMAC-SHA256", "name": "X-API-SIGNATURE", "in": "header", "required": true},
                    {"type": "string", "description": "unix seconds", "name": "X-API-TIMESTAMP", "in": "header", "required": true},
                    {"type": "string", "description": "random nonce", "name": "X-API-NONCE", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.orderAckResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.orderAckResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/orders/{id}": {
            "put": {
                "description": "Applies a status and/or note update from the peer. The path id is the peer's own order id.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "ReceiveUpdate",
                "operationId": "receive-update",
                "parameters": [
                    {"type": "integer", "description": "peer order id", "name": "id", "in": "path", "required": true},
                    {"description": "partial update", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RemoteUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.statusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/orders/{id}/notes": {
            "post": {
                "description": "Adds a note to the order the peer knows by id and relays it back to the peer.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "ReceiveNote",
                "operationId": "receive-note",
                "parameters": [
                    {"type": "integer", "description": "peer order id", "name": "id", "in": "path", "required": true},
                    {"description": "note", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.NoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.noteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/orders": {
            "get": {
                "description": "Lists every order, newest first, with notes, shipping date and totals",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "ListOrders",
                "operationId": "list-orders",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.getAllOrdersResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            },
            "post": {
                "description": "Stores a locally entered order. It is not sent anywhere until published.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "CreateOrder",
                "operationId": "create-order",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.orderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/orders/{id}": {
            "get": {
                "description": "Returns one order from the app's cache, falling back to the store",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "GetOrder",
                "operationId": "get-order",
                "parameters": [
                    {"type": "integer", "description": "internal order id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.OrderView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/orders/{id}/status": {
            "put": {
                "description": "Changes the order status and pushes it to the peer when it changed",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "SetStatus",
                "operationId": "set-status",
                "parameters": [
                    {"type": "integer", "description": "internal order id", "name": "id", "in": "path", "required": true},
                    {"description": "new status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.orderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/orders/{id}/notes": {
            "post": {
                "description": "Adds a local note and pushes it to the peer",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "AddNote",
                "operationId": "add-note",
                "parameters": [
                    {"type": "integer", "description": "internal order id", "name": "id", "in": "path", "required": true},
                    {"description": "note", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.NoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.adminNoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/orders/{id}/sync": {
            "post": {
                "description": "Pushes the current status of the order to the peer again",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Resync",
                "operationId": "resync",
                "parameters": [
                    {"type": "integer", "description": "internal order id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.syncResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        },
        "/api/orders/{id}/publish": {
            "post": {
                "description": "Sends a local order to the peer and links the peer's id to it",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Publish",
                "operationId": "publish",
                "parameters": [
                    {"type": "integer", "description": "internal order id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.orderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/http.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.errorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "http.statusResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "http.orderAckResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "order_id": {"type": "integer"},
                "store_order_id": {"type": "integer"}
            }
        },
        "http.noteResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "note": {"$ref": "#/definitions/models.Note"}
            }
        },
        "http.getAllOrdersResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.OrderView"}}
            }
        },
        "http.orderResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/models.OrderView"},
                "sync": {"$ref": "#/definitions/service.SyncResult"}
            }
        },
        "http.adminNoteResponse": {
            "type": "object",
            "properties": {
                "note": {"$ref": "#/definitions/models.Note"},
                "sync": {"$ref": "#/definitions/service.SyncResult"}
            }
        },
        "http.syncResponse": {
            "type": "object",
            "properties": {
                "sync": {"$ref": "#/definitions/service.SyncResult"}
            }
        },
        "models.Note": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "added_by": {"type": "string"},
                "is_customer_note": {"type": "boolean"},
                "origin": {"type": "string", "enum": ["local", "peer"]},
                "date": {"type": "string"}
            }
        },
        "models.NoteRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "content": {"type": "string", "maxLength": 10000},
                "is_customer_note": {"type": "boolean"}
            }
        },
        "models.StatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "maxLength": 64}
            }
        },
        "models.RemoteUpdate": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "note": {"$ref": "#/definitions/models.Note"}
            }
        },
        "models.LineItem": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "total": {"type": "string"}
            }
        },
        "models.OrderView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "external_id": {"type": "integer"},
                "title": {"type": "string"},
                "status": {"type": "string"},
                "customer": {"type": "object"},
                "date_created": {"type": "string"},
                "shipping_date": {"type": "string"},
                "line_items": {"type": "array", "items": {"$ref": "#/definitions/models.LineItem"}},
                "notes": {"type": "array", "items": {"$ref": "#/definitions/models.Note"}},
                "payment_method": {"type": "string"},
                "shipping_method": {"type": "object"},
                "total": {"type": "string"}
            }
        },
        "service.SyncResult": {
            "type": "object",
            "properties": {
                "delivered": {"type": "boolean"},
                "skipped": {"type": "boolean"},
                "reason": {"type": "string"},
                "status_code": {"type": "integer"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8081",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "order sync node",
	Description:      "Signed two-peer order synchronization between a store and a hub.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
