package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"scoutapi/internal/ai"
	"scoutapi/internal/ranking"
	"scoutapi/internal/service"
	"scoutapi/internal/textextract"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. db may be
// nil when no remote database is configured; the health endpoint then only
// reports liveness.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.PaperService) {
	// Serve OpenAPI spec and Swagger UI
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

	// Health endpoint: checks DB connectivity when a remote database is
	// configured, plain liveness otherwise.
	app.Get("/health", func(c *fiber.Ctx) error {
		if db == nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "database": "none"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "database": "ok"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Resolved identity and storage mode
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(svc.CurrentUser(c.UserContext()))
	})

	// Sign out: clears the guest session in local mode
	app.Post("/logout", func(c *fiber.Ctx) error {
		if err := svc.SignOut(c.UserContext()); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// List the current user's papers, newest first
	app.Get("/papers", func(c *fiber.Ctx) error {
		papers, err := svc.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(papers)
	})

	// Upload a paper (multipart/form-data, field name: file)
	app.Post("/papers", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		paper, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size)
		if err != nil {
			switch {
			case errors.Is(err, textextract.ErrExtractionFailed):
				return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_FILE", "could not extract text from file")
			case errors.Is(err, ai.ErrServiceFailed):
				return writeError(c, fiber.StatusBadGateway, "ANALYSIS_FAILED", "paper analysis failed")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(paper)
	})

	// Ranked search over the user's corpus
	app.Get("/papers/search", func(c *fiber.Ctx) error {
		f := ranking.Filters{
			DateRange: c.Query("date_range", ranking.DateAll),
			SortBy:    c.Query("sort", ranking.SortRelevance),
		}
		if v := c.Query("complexity"); v != "" {
			f.Complexity = splitCSV(v)
		}
		if v := c.Query("domains"); v != "" {
			f.Domains = splitCSV(v)
		}

		results, err := svc.Search(c.UserContext(), c.Query("q"), f)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(results)
	})

	// Fetch a stored summary; 404 when none exists for this (paper, age)
	app.Get("/papers/:id/summaries/:age", func(c *fiber.Ctx) error {
		age, err := strconv.Atoi(c.Params("age"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_AGE", "invalid target age")
		}
		content, err := svc.GetSummary(c.UserContext(), c.Params("id"), age)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if content == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "summary not found")
		}
		c.Type("json")
		return c.Send(content)
	})

	// Get-or-generate a summary at a target reading age
	app.Post("/papers/:id/summaries", func(c *fiber.Ctx) error {
		var body struct {
			TargetAge int `json:"target_age"`
		}
		if err := c.BodyParser(&body); err != nil || body.TargetAge <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_AGE", "invalid target age")
		}
		content, err := svc.Summarize(c.UserContext(), c.Params("id"), body.TargetAge)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Type("json")
		return c.Send(content)
	})

	// Generate a code rendition of the paper
	app.Post("/papers/:id/code", func(c *fiber.Ctx) error {
		var body struct {
			Language  string `json:"language"`
			Framework string `json:"framework"`
		}
		if err := c.BodyParser(&body); err != nil || body.Language == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "language is required")
		}
		gen, err := svc.GenerateCode(c.UserContext(), c.Params("id"), body.Language, body.Framework)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(gen)
	})

	// List a paper's saved visualizations
	app.Get("/papers/:id/visualizations", func(c *fiber.Ctx) error {
		vis, err := svc.Visualizations(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(vis)
	})

	// Generate and store a visualization config
	app.Post("/papers/:id/visualizations", func(c *fiber.Ctx) error {
		var body struct {
			Type string `json:"type"`
		}
		if err := c.BodyParser(&body); err != nil || body.Type == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "type is required")
		}
		vis, err := svc.CreateVisualization(c.UserContext(), c.Params("id"), body.Type)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(vis)
	})

	// Related published work for a paper
	app.Get("/papers/:id/similar", func(c *fiber.Ctx) error {
		papers, err := svc.SimilarPapers(c.UserContext(), c.Params("id"), c.Query("q"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(papers)
	})

	// Notifications (remote mode only; empty list in local mode)
	app.Get("/notifications", func(c *fiber.Ctx) error {
		items, err := svc.Notifications(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(items)
	})

	app.Post("/notifications/:id/read", func(c *fiber.Ctx) error {
		if err := svc.MarkNotificationRead(c.UserContext(), c.Params("id")); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrPaperNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "paper not found")
	case errors.Is(err, ai.ErrServiceFailed):
		return writeError(c, fiber.StatusBadGateway, "GENERATION_FAILED", "content generation failed")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
