package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>docufold — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the document CRUD and auth endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "docufold", "version": "v0.1.0" },
  "paths": {
    "/api/docs": {
      "get": {
        "summary": "List documents",
        "parameters": [ { "name": "include", "in": "query", "schema": { "type": "string", "enum": ["content"] } } ],
        "responses": { "200": { "description": "array of documents" } }
      },
      "post": {
        "summary": "Create a document (multipart: title, content or mdFile, image_* parts)",
        "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"},"mdFile":{"type":"string","format":"binary"}}}}}},
        "responses": { "201": { "description": "created document" }, "400": { "description": "validation error" }, "409": { "description": "slug conflict" } }
      }
    },
    "/api/docs/{slug}": {
      "get": {
        "summary": "Get a document with its content",
        "parameters": [ { "name": "slug", "in": "path", "required": true, "schema": { "type": "string" } } ],
        "responses": { "200": { "description": "document with content" }, "404": { "description": "not found" } }
      }
    },
    "/api/docs/{id}": {
      "patch": {
        "summary": "Update title, content or images (multipart)",
        "parameters": [ { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } } ],
        "responses": { "200": { "description": "updated document" }, "404": { "description": "not found" }, "409": { "description": "slug conflict" } }
      },
      "delete": {
        "summary": "Delete a document and its stored files",
        "parameters": [ { "name": "id", "in": "path", "required": true, "schema": { "type": "string" } } ],
        "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } }
      }
    },
    "/auth/login": {
      "post": {
        "summary": "Admin login",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "responses": { "200": { "description": "logged out" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics exposition" } } } }
  }
}`
