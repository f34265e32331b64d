package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pdfreview/docs"
	"pdfreview/internal/http/middleware"
	"pdfreview/internal/service"
)

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Health     Pinger
	Documents  service.DocumentService
	Moderation service.ModerationService
	Verifier   middleware.TokenVerifier
	// Gatherer backs /metrics. Nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, call the service, map the error.
func RegisterRoutes(app *fiber.App, d Deps) {
	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if d.Health != nil {
		app.Get("/health", HealthCheck(d.Health))
	}
	app.Get("/healthz", Liveness())

	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authn := middleware.Authenticate(d.Verifier)
	admin := middleware.RequireAdmin()

	// Documents. /all and /allPdf must precede /:id.
	app.Get("/api/pdfs/all", ListAllDocuments(d.Documents))
	app.Get("/api/pdfs/allPdf", ListAllDocuments(d.Documents))
	app.Get("/api/pdfs", authn, ListMyDocuments(d.Documents))
	app.Post("/api/pdfs", authn, UploadDocument(d.Documents))
	app.Get("/api/pdfs/:id", GetDocument(d.Documents))
	app.Get("/api/pdfs/:id/file", DownloadDocument(d.Documents))
	app.Patch("/api/pdfs/:id", authn, UpdateDocument(d.Documents))
	app.Delete("/api/pdfs/:id", authn, DeleteDocument(d.Documents))

	// Change requests
	app.Post("/api/requests", authn, CreateDeleteRequest(d.Moderation))
	app.Post("/api/requests/edit", authn, CreateEditRequest(d.Documents, d.Moderation))
	app.Get("/api/requests", authn, admin, ListRequests(d.Moderation))
	app.Get("/api/requests/:id", authn, admin, GetRequest(d.Moderation))
	app.Put("/api/requests/:id/status", authn, admin, ResolveRequest(d.Moderation))
}
