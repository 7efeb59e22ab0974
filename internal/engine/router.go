package engine

import "github.com/gofiber/fiber/v2"

func RegisterTableRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	api.Get("/_operators", h.Operators)
	api.Get("/_tables", h.ListTables)

	api.Delete("/:app/:table", h.DeleteTable)

	t := api.Group("/:app/:table")
	t.Get("/columns", h.GetColumns)
	t.Put("/columns", h.PutColumns)
	t.Get("/rows", h.ListRows)
	t.Post("/rows", h.CreateRow)
	t.Get("/rows/:id", h.GetRow)
	t.Delete("/rows/:id", h.DeleteRow)
	t.Get("/rules/:group", h.GetRules)
	t.Put("/rules/:group", h.PutRules)
	t.Delete("/rules/:group/:id", h.DeleteRule)
}
