// Package docs registers the OpenAPI document served under /swagger.
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
        "/session": {
            "get": {
                "tags": [
                    "Session"
                ],
                "summary": "Get session state",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/session/connect": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Connect to a device",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Connect already in progress",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Device could not be opened",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.ConnectRequest"
                        }
                    }
                ]
            }
        },
        "/session/disconnect": {
            "post": {
                "tags": [
                    "Session"
                ],
                "summary": "Disconnect",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/session/simulation": {
            "put": {
                "tags": [
                    "Session"
                ],
                "summary": "Toggle simulation mode",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.SimulationRequest"
                        }
                    }
                ]
            }
        },
        "/devices": {
            "get": {
                "tags": [
                    "Discovery"
                ],
                "summary": "Scan for devices",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/devices/details": {
            "get": {
                "tags": [
                    "Discovery"
                ],
                "summary": "Scan with details",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "type",
                        "type": "string",
                        "enum": [
                            "serial",
                            "usb",
                            "tcp"
                        ]
                    }
                ]
            }
        },
        "/devices/scanners": {
            "get": {
                "tags": [
                    "Discovery"
                ],
                "summary": "List scanners",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/settings": {
            "get": {
                "tags": [
                    "Settings"
                ],
                "summary": "Get settings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/settings/serial": {
            "put": {
                "tags": [
                    "Settings"
                ],
                "summary": "Update serial settings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid settings",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/model.SerialSettings"
                        }
                    }
                ]
            }
        },
        "/settings/protocol": {
            "put": {
                "tags": [
                    "Settings"
                ],
                "summary": "Update protocol configuration",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid settings",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/model.ProtocolConfig"
                        }
                    }
                ]
            }
        },
        "/settings/protocol/active": {
            "put": {
                "tags": [
                    "Settings"
                ],
                "summary": "Select protocol",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "400": {
                        "description": "Unknown protocol",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.ActiveProtocolRequest"
                        }
                    }
                ]
            }
        },
        "/settings/control": {
            "put": {
                "tags": [
                    "Settings"
                ],
                "summary": "Update control values",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid settings",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/model.ControlState"
                        }
                    }
                ]
            }
        },
        "/commands/output-level": {
            "post": {
                "tags": [
                    "Commands"
                ],
                "summary": "Send output level",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Send failed or sequence aborted",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/commands/clock": {
            "post": {
                "tags": [
                    "Commands"
                ],
                "summary": "Send clock configuration",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Send failed or sequence aborted",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/commands/voltage": {
            "post": {
                "tags": [
                    "Commands"
                ],
                "summary": "Send voltage",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Send failed or sequence aborted",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/commands/frequency": {
            "post": {
                "tags": [
                    "Commands"
                ],
                "summary": "Send frequency",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Send failed or sequence aborted",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/commands/register-value": {
            "post": {
                "tags": [
                    "Commands"
                ],
                "summary": "Send register value",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Send failed or sequence aborted",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/commands/raw": {
            "post": {
                "tags": [
                    "Commands"
                ],
                "summary": "Send raw command",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Send failed",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.RawRequest"
                        }
                    }
                ]
            }
        },
        "/commands/outcomes": {
            "get": {
                "tags": [
                    "Commands"
                ],
                "summary": "Operation outcomes",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/registers": {
            "get": {
                "tags": [
                    "Registers"
                ],
                "summary": "List registers",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/registers/export": {
            "get": {
                "tags": [
                    "Registers"
                ],
                "summary": "Export register map",
                "produces": [
                    "application/x-yaml"
                ],
                "responses": {
                    "200": {
                        "description": "YAML register map",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/registers/import": {
            "post": {
                "tags": [
                    "Registers"
                ],
                "summary": "Import register map",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "400": {
                        "description": "Malformed map",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "consumes": [
                    "application/x-yaml"
                ]
            }
        },
        "/registers/save": {
            "post": {
                "tags": [
                    "Registers"
                ],
                "summary": "Save register map",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "503": {
                        "description": "No map file configured",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/registers/{address}": {
            "get": {
                "tags": [
                    "Registers"
                ],
                "summary": "Get register",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown register",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "address",
                        "type": "string",
                        "required": true,
                        "description": "Address, decimal or 0x hex"
                    }
                ]
            },
            "put": {
                "tags": [
                    "Registers"
                ],
                "summary": "Write register",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Send failed",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "address",
                        "type": "string",
                        "required": true,
                        "description": "Address, decimal or 0x hex"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.ValueRequest"
                        }
                    }
                ]
            }
        },
        "/registers/{address}/read": {
            "post": {
                "tags": [
                    "Registers"
                ],
                "summary": "Read register",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "409": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "504": {
                        "description": "No response",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "address",
                        "type": "string",
                        "required": true,
                        "description": "Address, decimal or 0x hex"
                    }
                ]
            }
        },
        "/registers/{address}/fields/{field}": {
            "put": {
                "tags": [
                    "Registers"
                ],
                "summary": "Write bitfield",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown register or field",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "502": {
                        "description": "Write-back failed",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "address",
                        "type": "string",
                        "required": true,
                        "description": "Address, decimal or 0x hex"
                    },
                    {
                        "in": "path",
                        "name": "field",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.ValueRequest"
                        }
                    }
                ]
            }
        },
        "/log": {
            "get": {
                "tags": [
                    "Log"
                ],
                "summary": "List log entries",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Log"
                ],
                "summary": "Clear log",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        },
        "/log/export": {
            "get": {
                "tags": [
                    "Log"
                ],
                "summary": "Export log",
                "produces": [
                    "text/csv",
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "400": {
                        "description": "Unknown format",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    },
                    "404": {
                        "description": "Log is empty",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "format",
                        "type": "string",
                        "enum": [
                            "csv",
                            "json"
                        ],
                        "default": "csv"
                    }
                ]
            }
        },
        "/log/filters": {
            "put": {
                "tags": [
                    "Log"
                ],
                "summary": "Set log filters",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.FiltersRequest"
                        }
                    }
                ]
            }
        },
        "/ws/stats": {
            "get": {
                "tags": [
                    "WebSocket"
                ],
                "summary": "WebSocket connection statistics",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/utils.APIResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "utils.APIResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "message": {
                    "type": "string"
                },
                "data": {},
                "error": {
                    "$ref": "#/definitions/utils.APIError"
                },
                "timestamp": {
                    "type": "string"
                },
                "request_id": {
                    "type": "string"
                }
            }
        },
        "utils.APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "details": {
                    "type": "string"
                }
            }
        },
        "handler.ConnectRequest": {
            "type": "object",
            "required": [
                "device"
            ],
            "properties": {
                "device": {
                    "type": "string",
                    "example": "COM3 (FTDI VID:0403 PID:6001)"
                }
            }
        },
        "handler.SimulationRequest": {
            "type": "object",
            "required": [
                "enabled"
            ],
            "properties": {
                "enabled": {
                    "type": "boolean"
                }
            }
        },
        "handler.RawRequest": {
            "type": "object",
            "required": [
                "data"
            ],
            "properties": {
                "data": {
                    "type": "string",
                    "example": "RREG:0x1C"
                }
            }
        },
        "handler.ActiveProtocolRequest": {
            "type": "object",
            "required": [
                "protocol"
            ],
            "properties": {
                "protocol": {
                    "type": "string",
                    "enum": [
                        "RFFE",
                        "SPI",
                        "I3C"
                    ]
                }
            }
        },
        "handler.ValueRequest": {
            "type": "object",
            "required": [
                "value"
            ],
            "properties": {
                "value": {
                    "description": "Number or 0x hex string"
                }
            }
        },
        "handler.FiltersRequest": {
            "type": "object",
            "required": [
                "tx",
                "rx"
            ],
            "properties": {
                "tx": {
                    "type": "boolean"
                },
                "rx": {
                    "type": "boolean"
                }
            }
        },
        "model.SerialSettings": {
            "type": "object"
        },
        "model.ProtocolConfig": {
            "type": "object"
        },
        "model.ControlState": {
            "type": "object",
            "properties": {
                "voltage": {
                    "type": "string",
                    "example": "3.3"
                },
                "frequency_hz": {
                    "type": "integer"
                },
                "vio": {
                    "type": "integer"
                },
                "register_value": {
                    "type": "integer"
                }
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
	Title:            "IC Control API",
	Description:      "Bench controller for RFFE, SPI and I3C test ICs behind FTDI and TCP bridges.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
