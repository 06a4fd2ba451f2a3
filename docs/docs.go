// Package docs is generated by swag from the annotations in internal/api/handler.
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
                "tags": [
                    "health"
                ],
                "summary": "Liveness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/health/ready": {
            "get": {
                "tags": [
                    "health"
                ],
                "summary": "Readiness probe",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "503": {
                        "description": "Service Unavailable"
                    }
                }
            }
        },
        "/v1/commands": {
            "post": {
                "tags": [
                    "commands"
                ],
                "summary": "Run a text command",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.commandRequest"
                        }
                    }
                ]
            }
        },
        "/v1/registrations": {
            "post": {
                "tags": [
                    "registrations"
                ],
                "summary": "Start registration for a role",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "202": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.beginRegistrationRequest"
                        }
                    }
                ]
            },
            "delete": {
                "tags": [
                    "registrations"
                ],
                "summary": "Abandon the registration in progress",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                }
            }
        },
        "/v1/registrations/input": {
            "post": {
                "tags": [
                    "registrations"
                ],
                "summary": "Answer the current registration step",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.registrationInputRequest"
                        }
                    }
                ]
            }
        },
        "/v1/me/role": {
            "post": {
                "tags": [
                    "registrations"
                ],
                "summary": "Switch between client and model",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.switchRoleRequest"
                        }
                    }
                ]
            }
        },
        "/v1/sessions": {
            "post": {
                "tags": [
                    "sessions"
                ],
                "summary": "Book a session and hold its price in escrow",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "Idempotency-Key",
                        "in": "header",
                        "required": false
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.createSessionRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "sessions"
                ],
                "summary": "List the caller's sessions, newest first",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "limit",
                        "in": "query",
                        "required": false
                    }
                ]
            }
        },
        "/v1/sessions/{ref}": {
            "get": {
                "tags": [
                    "sessions"
                ],
                "summary": "Get a session with its escrow",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "ref",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/v1/sessions/{ref}/start": {
            "post": {
                "tags": [
                    "sessions"
                ],
                "summary": "Start a pending session (model only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "ref",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/v1/sessions/{ref}/end": {
            "post": {
                "tags": [
                    "sessions"
                ],
                "summary": "Complete an active session (model only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "ref",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/v1/sessions/{ref}/dispute": {
            "post": {
                "tags": [
                    "sessions"
                ],
                "summary": "Dispute a session and freeze its escrow",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "ref",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.disputeRequest"
                        }
                    }
                ]
            }
        },
        "/v1/content": {
            "post": {
                "tags": [
                    "content"
                ],
                "summary": "Add an item to the caller's catalog (model only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.createContentRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "content"
                ],
                "summary": "List active content, oldest first",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "limit",
                        "in": "query",
                        "required": false
                    }
                ]
            }
        },
        "/v1/me/content": {
            "get": {
                "tags": [
                    "content"
                ],
                "summary": "List the caller's own content, hidden items included (model only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                }
            }
        },
        "/v1/content/{id}": {
            "patch": {
                "tags": [
                    "content"
                ],
                "summary": "Hide, show or reprice an item (owner only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.updateContentRequest"
                        }
                    }
                ]
            }
        },
        "/v1/content/{id}/purchase": {
            "post": {
                "tags": [
                    "content"
                ],
                "summary": "Buy a content item (client only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "Idempotency-Key",
                        "in": "header",
                        "required": false
                    },
                    {
                        "type": "integer",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/v1/admin/sessions/{ref}/release": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Release a session's escrow (admin only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    },
                    "403": {
                        "description": "Forbidden"
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "name": "ref",
                        "in": "path",
                        "required": true
                    }
                ]
            }
        },
        "/v1/admin/actions": {
            "get": {
                "tags": [
                    "admin"
                ],
                "summary": "Recent admin actions, newest first (admin only)",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "Unauthorized"
                    },
                    "403": {
                        "description": "Forbidden"
                    }
                },
                "parameters": [
                    {
                        "type": "integer",
                        "name": "limit",
                        "in": "query",
                        "required": false
                    }
                ]
            }
        }
    },
    "definitions": {
        "handler.commandRequest": {
            "type": "object",
            "properties": {
                "text": {
                    "type": "string"
                }
            },
            "required": [
                "text"
            ]
        },
        "handler.beginRegistrationRequest": {
            "type": "object",
            "properties": {
                "role": {
                    "type": "string",
                    "enum": [
                        "client",
                        "model"
                    ]
                }
            },
            "required": [
                "role"
            ]
        },
        "handler.registrationInputRequest": {
            "type": "object",
            "properties": {
                "text": {
                    "type": "string"
                }
            },
            "required": [
                "text"
            ]
        },
        "handler.switchRoleRequest": {
            "type": "object",
            "properties": {
                "role": {
                    "type": "string",
                    "enum": [
                        "client",
                        "model"
                    ]
                }
            },
            "required": [
                "role"
            ]
        },
        "handler.createSessionRequest": {
            "type": "object",
            "properties": {
                "model_id": {
                    "type": "integer"
                },
                "price": {
                    "type": "string"
                },
                "session_type": {
                    "type": "string"
                }
            },
            "required": [
                "model_id",
                "price",
                "session_type"
            ]
        },
        "handler.disputeRequest": {
            "type": "object",
            "properties": {
                "reason": {
                    "type": "string"
                }
            },
            "required": [
                "reason"
            ]
        },
        "handler.createContentRequest": {
            "type": "object",
            "properties": {
                "content_type": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "price": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                }
            },
            "required": [
                "content_type",
                "price",
                "title"
            ]
        },
        "handler.updateContentRequest": {
            "type": "object",
            "properties": {
                "is_active": {
                    "type": "boolean"
                },
                "price": {
                    "type": "string"
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
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Velvet Rooms API",
	Description:      "Session booking, escrow and content sales for the Velvet Rooms marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
