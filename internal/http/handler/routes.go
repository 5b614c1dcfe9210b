package handler

import (
	"database/sql"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/swagger"

	"docvault/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// ui may be nil, in which case no browser client is served.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, ui http.FileSystem) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/swagger/*", swagger.HandlerDefault)

	docs := app.Group("/api/documents")
	docs.Get("/", ListDocuments(docSvc))
	// Static segments before /:id.
	docs.Get("/limits", DocumentLimits(docSvc))
	docs.Post("/upload", UploadDocument(docSvc))
	docs.Get("/:id", DownloadDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))

	if ui != nil {
		app.Use("/", filesystem.New(filesystem.Config{
			Root:   ui,
			Index:  "index.html",
			MaxAge: 300,
		}))
	}
}
