// Package docs registra el documento OpenAPI servido en /swagger/.
// Se regenera con `swag init -g cmd/api/main.go`.
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
        "/content": {
            "get": {
                "produces": ["application/octet-stream", "application/json", "text/plain"],
                "tags": ["content"],
                "summary": "Retrieve shared content",
                "parameters": [
                    {"type": "string", "description": "CID (optional if accessToken is given)", "name": "contentIdentifier", "in": "query"},
                    {"type": "string", "description": "public access token", "name": "accessToken", "in": "query"},
                    {"type": "string", "default": "raw", "description": "content type hint (raw, json, text or a MIME type)", "name": "format", "in": "query"},
                    {"type": "string", "default": "auto", "description": "auto, json or text", "name": "responseType", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/content.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/content.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/content.notFoundResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/content.errorResponse"}}
                }
            }
        },
        "/content/diagnostics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Probe provider pin status and gateway availability",
                "parameters": [
                    {"type": "string", "description": "CID", "name": "contentIdentifier", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/content.ProbeReport"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/content.errorResponse"}},
                    "405": {"description": "Method Not Allowed", "schema": {"$ref": "#/definitions/content.errorResponse"}}
                }
            }
        },
        "/grants/{grantID}/revoke": {
            "post": {
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Revoke an access grant",
                "parameters": [
                    {"type": "string", "description": "store id of the grant", "name": "grantID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accessgrants.grantResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "string"}},
                    "403": {"description": "Forbidden", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "accessgrants.grantResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "owner_user_id": {"type": "string"},
                "access_token": {"type": "string"},
                "content_identifier": {"type": "string"},
                "expiry_time": {"type": "string"},
                "is_active": {"type": "boolean"},
                "has_password": {"type": "boolean"},
                "access_count": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "content.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "contentIdentifier": {"type": "string"},
                "attemptedUrls": {"type": "array", "items": {"type": "string"}}
            }
        },
        "content.notFoundResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "contentIdentifier": {"type": "string"},
                "attemptedUrls": {"type": "array", "items": {"type": "string"}}
            }
        },
        "content.GatewayReport": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "available": {"type": "boolean"},
                "statusCode": {"type": "integer"},
                "contentType": {"type": "string"},
                "contentLength": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "content.PinReport": {
            "type": "object",
            "properties": {
                "provider": {"type": "string"},
                "status": {"type": "string"},
                "count": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "content.ProbeReport": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "contentIdentifier": {"type": "string"},
                "timestamp": {"type": "string"},
                "family": {"type": "string"},
                "providerPinStatus": {"$ref": "#/definitions/content.PinReport"},
                "gateways": {"type": "object", "additionalProperties": {"$ref": "#/definitions/content.GatewayReport"}},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Clinic Content Gateway API",
	Description:      "Access-grant resolution and IPFS retrieval for shared clinical records.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
