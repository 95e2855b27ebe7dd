package main

import (
	"net/http"

	_ "github.com/jeamon/books-api/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// SetupRoutes injects book and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.HandleMethodNotAllowed = true
	router.NotFound = api.asHandler(m.public(api.NotFound))
	router.MethodNotAllowed = api.asHandler(m.public(api.MethodNotAllowed))
	router.HandleOPTIONS = true
	router.GlobalOPTIONS = api.asHandler(m.public(api.Preflight))
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	api.SetupBookRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/*any", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}

// SetupBookRoutes injects book related endpoints. Routes working
// on a single book go through the book loader.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/books", m.public(api.GetAllBooks))
	router.POST("/books", m.public(api.CreateBook))
	router.GET("/books/:id", m.public(api.BookLoader(api.GetOneBook)))
	router.PATCH("/books/:id", m.public(api.BookLoader(api.UpdateBook)))
	router.DELETE("/books/:id", m.public(api.BookLoader(api.DeleteOneBook)))
	return router
}

// SetupOpsRoutes injects internal operations related endpoints.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/ops/configs", m.ops(api.GetConfigs))
	router.GET("/ops/stats", m.ops(api.GetStatistics))
	router.GET("/ops/maintenance", m.ops(api.Maintenance))
	return router
}

func (api *APIHandler) asHandler(h httprouter.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r, nil)
	})
}
