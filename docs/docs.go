// Package docs registra a especificação Swagger servida em /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "paths": {
        "/register": {"post": {"tags": ["users"], "summary": "Registra um novo usuário",
            "parameters": [{"in": "body", "name": "registration", "required": true, "schema": {"$ref": "#/definitions/domain.UserRegistration"}}],
            "responses": {"201": {"description": "Usuário criado", "schema": {"$ref": "#/definitions/domain.User"}},
                          "409": {"description": "Email já cadastrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/login": {"post": {"tags": ["users"], "summary": "Autentica um usuário e retorna um JWT",
            "parameters": [{"in": "body", "name": "login", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}],
            "responses": {"200": {"description": "Token JWT emitido"},
                          "401": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/users/{id}/role": {"patch": {"tags": ["users"], "summary": "Troca o papel de um usuário", "security": [{"ApiKeyAuth": []}],
            "parameters": [{"in": "path", "name": "id", "type": "string", "required": true},
                           {"in": "body", "name": "role", "required": true, "schema": {"$ref": "#/definitions/domain.RoleChange"}}],
            "responses": {"200": {"description": "Usuário atualizado"}}}},
        "/products": {
            "get": {"tags": ["products"], "summary": "Lista o catálogo",
                "parameters": [{"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "limit", "type": "integer"},
                               {"in": "query", "name": "name", "type": "string"}, {"in": "query", "name": "category", "type": "string"},
                               {"in": "query", "name": "family", "type": "string"}, {"in": "query", "name": "status", "type": "string"}],
                "responses": {"200": {"description": "Produtos"}}},
            "post": {"tags": ["products"], "summary": "Cria um produto no catálogo", "security": [{"ApiKeyAuth": []}],
                "responses": {"201": {"description": "Produto criado"}}}},
        "/products/{id}": {
            "get": {"tags": ["products"], "summary": "Obtém um produto",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Produto"}, "404": {"description": "Não encontrado"}}},
            "put": {"tags": ["products"], "summary": "Substitui um produto", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Atualizado"}}},
            "delete": {"tags": ["products"], "summary": "Remove um produto", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Removido"}}}},
        "/inventory": {
            "get": {"tags": ["inventory"], "summary": "Lista o estoque", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "query", "name": "location", "type": "string", "enum": ["ISV", "Houston"]},
                               {"in": "query", "name": "grouped", "type": "boolean"},
                               {"in": "query", "name": "sort", "type": "string", "enum": ["quantity", "name"]}],
                "responses": {"200": {"description": "Registros ou grupos"}}},
            "post": {"tags": ["inventory"], "summary": "Cria estoque", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "body", "name": "inventory", "required": true, "schema": {"$ref": "#/definitions/domain.CreateInventoryRequest"}}],
                "responses": {"201": {"description": "Registros criados ou atualizados"},
                              "409": {"description": "Número de série já existe ou já foi enviado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}},
            "delete": {"tags": ["inventory"], "summary": "Remove todos os registros de um grupo", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "query", "name": "name", "type": "string", "required": true},
                               {"in": "query", "name": "sku", "type": "string", "required": true},
                               {"in": "query", "name": "location", "type": "string", "required": true}],
                "responses": {"200": {"description": "Quantidade removida"}}}},
        "/inventory/{id}": {
            "put": {"tags": ["inventory"], "summary": "Atualiza um registro de estoque", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Resultado da atualização"}}},
            "delete": {"tags": ["inventory"], "summary": "Remove (ou decrementa) um registro de estoque", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Ação aplicada"}}}},
        "/shipments": {
            "get": {"tags": ["shipments"], "summary": "Lista envios", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "query", "name": "poNumber", "type": "string"}, {"in": "query", "name": "status", "type": "string"},
                               {"in": "query", "name": "from", "type": "string"}, {"in": "query", "name": "to", "type": "string"}],
                "responses": {"200": {"description": "Envios"}}},
            "post": {"tags": ["shipments"], "summary": "Cria um envio e reserva o estoque", "security": [{"ApiKeyAuth": []}],
                "responses": {"201": {"description": "Envio criado"},
                              "422": {"description": "Estoque insuficiente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}}}},
        "/shipments/{id}": {
            "get": {"tags": ["shipments"], "summary": "Obtém um envio", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Envio"}}},
            "patch": {"tags": ["shipments"], "summary": "Atualiza status, linhas ou custos de um envio", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "Envio atualizado"}}},
            "delete": {"tags": ["shipments"], "summary": "Remove um envio", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true},
                               {"in": "query", "name": "restoreStock", "type": "boolean"}],
                "responses": {"204": {"description": "Removido"}}}},
        "/inquiries": {
            "get": {"tags": ["inquiries"], "summary": "Lista as solicitações", "security": [{"ApiKeyAuth": []}],
                "responses": {"200": {"description": "Solicitações"}}},
            "post": {"tags": ["inquiries"], "summary": "Envia uma solicitação de cotação", "security": [{"ApiKeyAuth": []}],
                "responses": {"201": {"description": "Solicitação registrada"}}}},
        "/inquiries/{id}": {
            "patch": {"tags": ["inquiries"], "summary": "Avança o status de uma solicitação", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true},
                               {"in": "query", "name": "action", "type": "string", "enum": ["process", "fulfill"], "required": true}],
                "responses": {"200": {"description": "Solicitação atualizada"}}},
            "delete": {"tags": ["inquiries"], "summary": "Remove uma solicitação", "security": [{"ApiKeyAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Removida"}}}}
    },
    "definitions": {
        "domain.ErrorResponse": {"type": "object", "properties": {
            "code": {"type": "integer", "example": 409},
            "category": {"type": "string", "example": "CONFLICT"},
            "message": {"type": "string"},
            "details": {"type": "object"}}},
        "domain.UserRegistration": {"type": "object", "required": ["email", "password", "name"], "properties": {
            "email": {"type": "string"}, "password": {"type": "string"},
            "name": {"type": "string"}, "company_name": {"type": "string"}}},
        "domain.LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {
            "email": {"type": "string"}, "password": {"type": "string"}}},
        "domain.RoleChange": {"type": "object", "required": ["role"], "properties": {
            "role": {"type": "string", "enum": ["guest", "customer", "admin"]}}},
        "domain.User": {"type": "object", "properties": {
            "id": {"type": "string"}, "email": {"type": "string"}, "role": {"type": "string"},
            "name": {"type": "string"}, "company_name": {"type": "string"}}},
        "domain.CreateInventoryRequest": {"type": "object", "required": ["name", "sku", "family", "part_number", "location"], "properties": {
            "name": {"type": "string"}, "sku": {"type": "string"}, "family": {"type": "string"},
            "part_number": {"type": "string"}, "location": {"type": "string", "enum": ["ISV", "Houston"]},
            "quantity": {"type": "integer"}, "serial_numbers": {"type": "array", "items": {"type": "string"}}}}
    }
}`

// SwaggerInfo contém as informações exportadas da API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "stockledger API",
	Description:      "Ledger de estoque serializado e de envios, com catálogo e solicitações de cotação.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
