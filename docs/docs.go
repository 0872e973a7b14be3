// Package docs registra la definición OpenAPI servida en /swagger.
// Regenerar con: swag init -g cmd/api/main.go -o docs
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
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "ok"}}}},
        "/users": {"post": {"tags": ["users"], "summary": "Registrar usuario", "responses": {"403": {"description": "admin cannot self-register"}, "201": {"description": "created"}, "400": {"description": "invalid input"}, "409": {"description": "email already registered"}}}},
        "/me": {
            "get": {"tags": ["users"], "summary": "Perfil del usuario autenticado", "responses": {"200": {"description": "ok"}, "401": {"description": "unauthorized"}}},
            "patch": {"tags": ["users"], "summary": "Editar perfil (el rol no se puede cambiar)", "responses": {"200": {"description": "ok"}, "400": {"description": "invalid input"}, "401": {"description": "unauthorized"}}}
        },
        "/veterinarians": {"get": {"tags": ["users"], "summary": "Listar veterinarios", "responses": {"200": {"description": "ok"}}}},
        "/pets": {
            "get": {"tags": ["pets"], "summary": "Listar mis mascotas", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["pets"], "summary": "Crear mascota", "responses": {"201": {"description": "created"}, "400": {"description": "invalid input"}, "403": {"description": "not authorized"}}}
        },
        "/pets/{petID}": {
            "get": {"tags": ["pets"], "summary": "Obtener mascota", "responses": {"200": {"description": "ok"}, "403": {"description": "not authorized"}, "404": {"description": "pet not found"}}},
            "patch": {"tags": ["pets"], "summary": "Editar mascota", "responses": {"200": {"description": "ok"}, "403": {"description": "not authorized"}, "404": {"description": "pet not found"}}},
            "delete": {"tags": ["pets"], "summary": "Borrar mascota", "responses": {"204": {"description": "deleted"}, "403": {"description": "not authorized"}, "404": {"description": "pet not found"}}}
        },
        "/pets/{petID}/permissions": {"get": {"tags": ["authz"], "summary": "Acciones permitidas sobre una mascota", "responses": {"200": {"description": "ok"}, "403": {"description": "not authorized"}, "404": {"description": "pet not found"}}}},
        "/pets/{petID}/grants": {
            "get": {"tags": ["grants"], "summary": "Listar accesos de una mascota", "responses": {"200": {"description": "ok"}}},
            "post": {"tags": ["grants"], "summary": "Compartir mascota con un veterinario", "responses": {"201": {"description": "created"}, "400": {"description": "invalid input"}, "403": {"description": "not authorized"}, "404": {"description": "not found"}, "409": {"description": "active grant already exists"}}}
        },
        "/grants/{grantID}/revoke": {"post": {"tags": ["grants"], "summary": "Revocar acceso", "responses": {"200": {"description": "ok"}, "403": {"description": "not authorized"}, "404": {"description": "grant not found"}}}},
        "/me/grants": {"get": {"tags": ["grants"], "summary": "Accesos activos del usuario", "responses": {"200": {"description": "ok"}}}},
        "/me/patients": {"get": {"tags": ["pets"], "summary": "Pacientes del veterinario", "description": "Sin viewOwnerInfo solo se devuelve pet_id y el grant.", "responses": {"200": {"description": "ok"}, "403": {"description": "not authorized"}}}},
        "/pets/{petID}/records": {
            "get": {"tags": ["records"], "summary": "Listar historia clínica", "responses": {"200": {"description": "ok"}, "403": {"description": "not authorized"}, "404": {"description": "pet not found"}}},
            "post": {"tags": ["records"], "summary": "Crear registro médico", "responses": {"201": {"description": "created"}, "400": {"description": "invalid input"}, "403": {"description": "not authorized"}, "404": {"description": "pet not found"}}}
        },
        "/pets/{petID}/records/{recordID}": {
            "patch": {"tags": ["records"], "summary": "Editar registro médico", "responses": {"200": {"description": "ok"}, "403": {"description": "not authorized"}, "404": {"description": "not found"}}},
            "delete": {"tags": ["records"], "summary": "Borrar registro médico", "responses": {"204": {"description": "deleted"}, "403": {"description": "not authorized"}, "404": {"description": "not found"}}}
        }
    }
}`

// SwaggerInfo contiene la metadata exportada del API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Health Sharing API",
	Description:      "Historia clínica de mascotas compartida entre dueños y veterinarios.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
