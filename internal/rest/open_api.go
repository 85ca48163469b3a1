package rest

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"
)

// NewOpenAPI3 instantiates the OpenAPI 3 document describing the REST API.
func NewOpenAPI3() openapi3.T {
	swagger := openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "Task Tracker API",
			Description: "REST APIs used for interacting with the Task Tracker Service",
			Version:     "0.0.0",
			License: &openapi3.License{
				Name: "MIT",
				URL:  "https://opensource.org/licenses/MIT",
			},
		},
		Servers: openapi3.Servers{
			&openapi3.Server{
				Description: "Local development",
				URL:         "http://0.0.0.0:9234",
			},
		},
		Components: &openapi3.Components{},
	}

	tasks := openapi3.NewArraySchema()
	tasks.Items = &openapi3.SchemaRef{Ref: "#/components/schemas/Task"}

	swagger.Components.Schemas = openapi3.Schemas{
		"Status": openapi3.NewSchemaRef("",
			openapi3.NewStringSchema().
				WithEnum("pendiente", "en_progreso", "completada")),
		"Priority": openapi3.NewSchemaRef("",
			openapi3.NewStringSchema().
				WithEnum("baja", "media", "alta").
				WithDefault("media")),
		"Kind": openapi3.NewSchemaRef("",
			openapi3.NewStringSchema().
				WithEnum("TareaSimple", "TareaPrioritaria", "TareaConFecha")),
		"Task": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("id", openapi3.NewInt64Schema()).
				WithProperty("titulo", openapi3.NewStringSchema()).
				WithProperty("descripcion", openapi3.NewStringSchema()).
				WithPropertyRef("estado", &openapi3.SchemaRef{Ref: "#/components/schemas/Status"}).
				WithProperty("fecha_creacion", openapi3.NewStringSchema()).
				WithPropertyRef("tipo", &openapi3.SchemaRef{Ref: "#/components/schemas/Kind"}).
				WithProperty("info_especifica", openapi3.NewStringSchema()).
				WithPropertyRef("prioridad", &openapi3.SchemaRef{Ref: "#/components/schemas/Priority"}).
				WithProperty("fecha_limite", openapi3.NewStringSchema().WithNullable()).
				WithProperty("vencida", openapi3.NewBoolSchema())),
		"Tasks": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("tasks", tasks).
				WithProperty("total", openapi3.NewIntegerSchema())),
	}

	createTask := openapi3.NewObjectSchema().
		WithProperty("tipo", openapi3.NewStringSchema().
			WithEnum("simple", "prioritaria", "con_fecha").
			WithDefault("simple")).
		WithProperty("titulo", openapi3.NewStringSchema().
			WithMinLength(1).
			WithMaxLength(200)).
		WithProperty("descripcion", openapi3.NewStringSchema().
			WithMaxLength(1000)).
		WithPropertyRef("prioridad", &openapi3.SchemaRef{Ref: "#/components/schemas/Priority"}).
		WithProperty("fecha_limite", openapi3.NewStringSchema().WithNullable())
	createTask.Required = []string{"titulo"}

	swagger.Components.RequestBodies = openapi3.RequestBodies{
		"CreateTasksRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for creating a task.").
				WithRequired(true).
				WithJSONSchema(createTask),
		},
		"UpdateTasksRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for updating a task, missing fields are left untouched.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewObjectSchema().
					WithProperty("titulo", openapi3.NewStringSchema().
						WithMinLength(1).
						WithMaxLength(200)).
					WithProperty("descripcion", openapi3.NewStringSchema().
						WithMaxLength(1000)).
					WithPropertyRef("estado", &openapi3.SchemaRef{Ref: "#/components/schemas/Status"}).
					WithPropertyRef("prioridad", &openapi3.SchemaRef{Ref: "#/components/schemas/Priority"}).
					WithProperty("fecha_limite", openapi3.NewStringSchema().WithNullable())),
		},
	}

	swagger.Components.Responses = openapi3.Responses{
		"ErrorResponse": &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("Response when errors happen.").
				WithContent(openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema().
					WithProperty("error", openapi3.NewStringSchema()).
					WithProperty("validations", openapi3.NewObjectSchema()))),
		},
		"TaskResponse": &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("Task record.").
				WithContent(openapi3.NewContentWithJSONSchemaRef(&openapi3.SchemaRef{Ref: "#/components/schemas/Task"})),
		},
		"TasksResponse": &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("Task records.").
				WithContent(openapi3.NewContentWithJSONSchemaRef(&openapi3.SchemaRef{Ref: "#/components/schemas/Tasks"})),
		},
	}

	idParameter := &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").
			WithSchema(openapi3.NewInt64Schema()),
	}

	errorResponse := &openapi3.ResponseRef{Ref: "#/components/responses/ErrorResponse"}
	taskResponse := &openapi3.ResponseRef{Ref: "#/components/responses/TaskResponse"}
	tasksResponse := &openapi3.ResponseRef{Ref: "#/components/responses/TasksResponse"}

	swagger.Paths = openapi3.Paths{
		"/tasks": &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "CreateTask",
				RequestBody: &openapi3.RequestBodyRef{
					Ref: "#/components/requestBodies/CreateTasksRequest",
				},
				Responses: openapi3.Responses{
					"400": errorResponse,
					"500": errorResponse,
					"201": taskResponse,
				},
			},
			Get: &openapi3.Operation{
				OperationID: "ListTasks",
				Parameters: []*openapi3.ParameterRef{
					{
						Value: openapi3.NewQueryParameter("status").
							WithSchema(openapi3.NewStringSchema()),
					},
				},
				Responses: openapi3.Responses{
					"500": errorResponse,
					"200": tasksResponse,
				},
			},
		},
		"/tasks/overdue": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "OverdueTasks",
				Responses: openapi3.Responses{
					"500": errorResponse,
					"200": tasksResponse,
				},
			},
		},
		"/tasks/{id}": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ReadTask",
				Parameters:  []*openapi3.ParameterRef{idParameter},
				Responses: openapi3.Responses{
					"404": errorResponse,
					"500": errorResponse,
					"200": taskResponse,
				},
			},
			Put: &openapi3.Operation{
				OperationID: "UpdateTask",
				Parameters:  []*openapi3.ParameterRef{idParameter},
				RequestBody: &openapi3.RequestBodyRef{
					Ref: "#/components/requestBodies/UpdateTasksRequest",
				},
				Responses: openapi3.Responses{
					"400": errorResponse,
					"404": errorResponse,
					"500": errorResponse,
					"200": taskResponse,
				},
			},
			Delete: &openapi3.Operation{
				OperationID: "DeleteTask",
				Parameters:  []*openapi3.ParameterRef{idParameter},
				Responses: openapi3.Responses{
					"404": errorResponse,
					"500": errorResponse,
					"200": &openapi3.ResponseRef{
						Value: openapi3.NewResponse().
							WithDescription("Task deleted.").
							WithContent(openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema().
								WithProperty("message", openapi3.NewStringSchema()))),
					},
				},
			},
		},
		"/tasks/{id}/complete": &openapi3.PathItem{
			Patch: &openapi3.Operation{
				OperationID: "CompleteTask",
				Parameters:  []*openapi3.ParameterRef{idParameter},
				Responses: openapi3.Responses{
					"404": errorResponse,
					"500": errorResponse,
					"200": taskResponse,
				},
			},
		},
		"/statistics": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "Statistics",
				Responses: openapi3.Responses{
					"500": errorResponse,
					"200": &openapi3.ResponseRef{
						Value: openapi3.NewResponse().
							WithDescription("Number of tasks per status.").
							WithContent(openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema().
								WithProperty("total", openapi3.NewIntegerSchema()).
								WithProperty("pendientes", openapi3.NewIntegerSchema()).
								WithProperty("en_progreso", openapi3.NewIntegerSchema()).
								WithProperty("completadas", openapi3.NewIntegerSchema()))),
					},
				},
			},
		},
	}

	return swagger
}

// RegisterOpenAPI serves the OpenAPI document as JSON and YAML.
func RegisterOpenAPI(r chi.Router) {
	swagger := NewOpenAPI3()

	r.Get("/openapi3.json", func(w http.ResponseWriter, r *http.Request) {
		renderResponse(w, &swagger, http.StatusOK)
	})

	r.Get("/openapi3.yaml", func(w http.ResponseWriter, r *http.Request) {
		data, err := yaml.Marshal(&swagger)
		if err != nil {
			renderErrorResponse(r.Context(), w, "yaml failed", err)
			return
		}

		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)

		_, _ = w.Write(data)
	})
}
