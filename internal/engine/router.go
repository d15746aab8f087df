package engine

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the dataset and rule evaluation endpoints.
func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Get("/datasets", h.ListDatasets)
	api.Post("/datasets", h.UploadDataset)
	api.Get("/datasets/:id", h.GetDataset)
	api.Delete("/datasets/:id", h.DeleteDataset)
	api.Post("/datasets/:id/rules", h.EvaluateRule)
	api.Post("/datasets/:id/rules/batch", h.EvaluateBatch)
}
