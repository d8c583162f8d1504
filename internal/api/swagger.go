package api

// Spec OpenAPI minimal en JSON para Swagger.
const openAPISpec = `{
  "openapi": "3.0.0",
  "info": {
    "title": "Packages Service API",
    "version": "1.0.0"
  },
  "components": {
    "securitySchemes": {
      "employee": {
        "type": "apiKey",
        "in": "header",
        "name": "X-Employee-Id"
      }
    },
    "schemas": {
      "HealthResponse": {
        "type": "object",
        "properties": {
          "status": { "type": "string" }
        }
      },
      "Error": {
        "type": "object",
        "properties": {
          "error": { "type": "string" },
          "campo": { "type": "string" }
        }
      },
      "Shortage": {
        "type": "object",
        "properties": {
          "nombre": { "type": "string" },
          "solicitado": { "type": "integer" },
          "disponible": { "type": "integer" }
        }
      },
      "ShortageResponse": {
        "type": "object",
        "properties": {
          "error": { "type": "string" },
          "faltantes": {
            "type": "array",
            "items": { "$ref": "#/components/schemas/Shortage" }
          }
        }
      },
      "LineItem": {
        "type": "object",
        "properties": {
          "id": { "type": "integer" },
          "packageId": { "type": "integer" },
          "productId": { "type": "integer" },
          "productName": { "type": "string" },
          "quantity": { "type": "integer" }
        }
      },
      "Package": {
        "type": "object",
        "properties": {
          "codigo": { "type": "string", "example": "PQ-12" },
          "id": { "type": "integer" },
          "branch": { "type": "string" },
          "status": { "type": "string", "enum": ["DRAFT", "CONFIRMED"] },
          "createdAtUtc": { "type": "string", "format": "date-time" },
          "confirmedAtUtc": { "type": "string", "format": "date-time", "nullable": true },
          "lines": {
            "type": "array",
            "items": { "$ref": "#/components/schemas/LineItem" }
          }
        }
      },
      "Product": {
        "type": "object",
        "properties": {
          "id": { "type": "integer" },
          "name": { "type": "string" },
          "barcode": { "type": "string", "nullable": true },
          "quantity": { "type": "integer", "minimum": 0 }
        }
      }
    }
  },
  "security": [{ "employee": [] }],
  "paths": {
    "/health": {
      "get": {
        "summary": "Health check",
        "security": [],
        "responses": {
          "200": {
            "description": "Service is healthy",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/HealthResponse" }
              }
            }
          }
        }
      }
    },
    "/api/products": {
      "get": {
        "summary": "List products",
        "responses": {
          "200": {
            "description": "Products",
            "content": {
              "application/json": {
                "schema": { "type": "array", "items": { "$ref": "#/components/schemas/Product" } }
              }
            }
          }
        }
      },
      "post": {
        "summary": "Create product (admin/boss)",
        "responses": {
          "303": { "description": "Created, redirects to /api/products" },
          "422": { "description": "Validation error" }
        }
      }
    },
    "/api/packages/generate": {
      "post": {
        "summary": "Generate a draft package from a product selection",
        "requestBody": {
          "content": {
            "application/x-www-form-urlencoded": {
              "schema": {
                "type": "object",
                "properties": {
                  "productos_data": {
                    "type": "string",
                    "description": "JSON array of {id, cantidad}"
                  }
                }
              }
            }
          }
        },
        "responses": {
          "201": {
            "description": "Draft created",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/Package" }
              }
            }
          },
          "409": {
            "description": "Insufficient stock",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/ShortageResponse" }
              }
            }
          },
          "422": { "description": "Invalid selection" }
        }
      }
    },
    "/api/packages": {
      "get": {
        "summary": "List confirmed packages",
        "responses": {
          "200": {
            "description": "Confirmed packages, newest first",
            "content": {
              "application/json": {
                "schema": { "type": "array", "items": { "$ref": "#/components/schemas/Package" } }
              }
            }
          }
        }
      }
    },
    "/api/packages/{id}/confirm": {
      "post": {
        "summary": "Confirm a draft, debit inventory and assign the branch",
        "parameters": [
          { "name": "id", "in": "path", "required": true, "schema": { "type": "integer" } }
        ],
        "responses": {
          "303": { "description": "Confirmed, redirects to /api/packages" },
          "409": {
            "description": "Insufficient stock, the draft was discarded",
            "content": {
              "application/json": {
                "schema": { "$ref": "#/components/schemas/ShortageResponse" }
              }
            }
          },
          "422": { "description": "Branch is required" }
        }
      }
    },
    "/api/packages/{id}/cancel": {
      "post": {
        "summary": "Discard a draft",
        "parameters": [
          { "name": "id", "in": "path", "required": true, "schema": { "type": "integer" } }
        ],
        "responses": {
          "303": { "description": "Redirects to /api/products" }
        }
      }
    },
    "/api/packages/{id}/delete": {
      "post": {
        "summary": "Delete a package without refunding stock (admin/boss)",
        "parameters": [
          { "name": "id", "in": "path", "required": true, "schema": { "type": "integer" } }
        ],
        "responses": {
          "303": { "description": "Redirects to /api/packages" },
          "403": { "description": "Forbidden" }
        }
      }
    },
    "/api/products/{id}/image": {
      "get": {
        "summary": "Stored product image",
        "parameters": [
          { "name": "id", "in": "path", "required": true, "schema": { "type": "integer" } }
        ],
        "responses": {
          "200": { "description": "Raw image bytes" },
          "404": { "description": "No image stored" }
        }
      }
    },
    "/api/employees/{id}/picture": {
      "get": {
        "summary": "Stored profile picture",
        "parameters": [
          { "name": "id", "in": "path", "required": true, "schema": { "type": "integer" } }
        ],
        "responses": {
          "200": { "description": "Raw image bytes" },
          "404": { "description": "No picture stored" }
        }
      }
    },
    "/api/profile": {
      "get": {
        "summary": "Own employee profile",
        "responses": { "200": { "description": "Profile" } }
      },
      "post": {
        "summary": "Edit own profile (form fields, optional foto_perfil file)",
        "responses": { "303": { "description": "Redirects to /api/profile" } }
      }
    },
    "/api/profile/delete_picture": {
      "post": {
        "summary": "Remove own profile picture",
        "responses": { "303": { "description": "Redirects to /api/profile" } }
      }
    }
  }
}`
