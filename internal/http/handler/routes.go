package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"wordapi/internal/links"
	"wordapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.WordService) {
	// Serve the OpenAPI document and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Download endpoint for documents held in the temporary store.
	app.Get(links.DownloadPathPrefix+"/:id", DownloadDocument(svc))

	// Tool endpoints. All take JSON bodies.
	tools := app.Group("/mcp/tools")
	tools.Post("/create_document", CreateDocument(svc))
	tools.Post("/create_document_temp", CreateDocumentTemp(svc))
	tools.Post("/load_document_from_url", LoadDocumentFromURL(svc))
	tools.Post("/get_document_info", GetDocumentInfo(svc))
	tools.Post("/get_document_text", GetDocumentText(svc))
	tools.Post("/get_document_outline", GetDocumentOutline(svc))
	tools.Post("/get_document_xml", GetDocumentXML(svc))
	tools.Post("/list_available_documents", ListAvailableDocuments(svc))
	tools.Post("/copy_document", CopyDocument(svc))
	tools.Post("/merge_documents", MergeDocuments(svc))
	tools.Post("/convert_to_pdf", ConvertToPDF(svc))
	tools.Post("/publish_document", PublishDocument(svc))

	// Ingestion audit log (requires a configured database).
	app.Get("/ingestions", ListIngestions(svc))
}
