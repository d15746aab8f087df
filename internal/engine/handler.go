package engine

import (
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/HlisTilen/NiaARM/internal/config"
	"github.com/HlisTilen/NiaARM/internal/dataset"
	"github.com/HlisTilen/NiaARM/internal/instrument"
	"github.com/HlisTilen/NiaARM/internal/mining"
	"github.com/HlisTilen/NiaARM/internal/storage"
	"github.com/HlisTilen/NiaARM/internal/store"
)

// Handler serves the dataset catalog and rule evaluation endpoints.
type Handler struct {
	store       *store.Store
	registry    *dataset.Registry
	files       *storage.LocalStorage
	workers     int
	maxBatch    int
	maxFileSize int64
}

func NewHandler(s *store.Store, reg *dataset.Registry, files *storage.LocalStorage, cfg *config.Config) *Handler {
	workers := cfg.Evaluation.Workers
	if workers < 1 {
		workers = 1
	}
	return &Handler{
		store:       s,
		registry:    reg,
		files:       files,
		workers:     workers,
		maxBatch:    cfg.Evaluation.MaxBatchSize,
		maxFileSize: cfg.Storage.MaxFileSize,
	}
}

// attributeSchema describes one dataset column in API responses.
type attributeSchema struct {
	Name       string       `json:"name"`
	DType      mining.DType `json:"dtype"`
	MinVal     *float64     `json:"min_val,omitempty"`
	MaxVal     *float64     `json:"max_val,omitempty"`
	Categories []string     `json:"categories,omitempty"`
}

func schemaOf(d *dataset.Dataset) []attributeSchema {
	schema := make([]attributeSchema, 0, d.ColumnCount())
	for _, col := range d.Columns() {
		if col.Continuous {
			lo, hi := col.Min, col.Max
			schema = append(schema, attributeSchema{
				Name: col.Name, DType: mining.Continuous, MinVal: &lo, MaxVal: &hi,
			})
		} else {
			schema = append(schema, attributeSchema{
				Name: col.Name, DType: mining.Categorical, Categories: col.Categories(),
			})
		}
	}
	return schema
}

// ListDatasets handles GET /api/datasets.
func (h *Handler) ListDatasets(c *fiber.Ctx) error {
	entries := h.registry.All()
	infos := make([]dataset.Info, len(entries))
	for i, e := range entries {
		infos[i] = e.Info
	}
	return c.JSON(fiber.Map{"data": infos})
}

// GetDataset handles GET /api/datasets/:id.
func (h *Handler) GetDataset(c *fiber.Ctx) error {
	entry := h.registry.Get(c.Params("id"))
	if entry == nil {
		return NotFoundError("dataset", c.Params("id"))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"info":   entry.Info,
		"schema": schemaOf(entry.Data),
	}})
}

// UploadDataset handles POST /api/datasets: register a CSV transaction table.
func (h *Handler) UploadDataset(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Multipart field 'file' is required")
	}
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return NewAppError("FILE_TOO_LARGE", 413, fmt.Sprintf("File exceeds %d bytes", h.maxFileSize))
	}

	name := c.FormValue("name")
	if name == "" {
		name = filepath.Base(file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ctx := c.UserContext()
	id := uuid.New().String()

	path, err := h.files.Save(ctx, id, file.Filename, src)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}

	stored, err := h.files.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("reopen upload: %w", err)
	}
	data, loadErr := dataset.LoadCSV(stored)
	stored.Close()
	if loadErr != nil {
		_ = h.files.Delete(ctx, path)
		return NewAppError("INVALID_DATASET", 422, loadErr.Error())
	}

	info := dataset.Info{
		ID:      id,
		Name:    name,
		Path:    path,
		Rows:    data.Rows(),
		Columns: data.ColumnCount(),
	}
	if err := dataset.SaveInfo(ctx, h.store.DB, info); err != nil {
		_ = h.files.Delete(ctx, path)
		return err
	}
	h.registry.Put(&dataset.Entry{Info: info, Data: data})

	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "dataset.registered", "dataset", id,
		map[string]any{"name": name, "rows": info.Rows, "columns": info.Columns})

	return c.Status(201).JSON(fiber.Map{"data": fiber.Map{
		"info":   info,
		"schema": schemaOf(data),
	}})
}

// DeleteDataset handles DELETE /api/datasets/:id.
func (h *Handler) DeleteDataset(c *fiber.Ctx) error {
	id := c.Params("id")
	entry := h.registry.Get(id)
	if entry == nil {
		return NotFoundError("dataset", id)
	}

	ctx := c.UserContext()
	if err := dataset.DeleteInfo(ctx, h.store.DB, id); err != nil {
		return err
	}
	_ = h.files.Delete(ctx, entry.Info.Path)
	h.registry.Delete(id)

	return c.JSON(fiber.Map{"message": "Dataset deleted"})
}

// EvaluateRule handles POST /api/datasets/:id/rules: evaluate one candidate
// rule and return its metrics.
func (h *Handler) EvaluateRule(c *fiber.Ctx) error {
	entry := h.registry.Get(c.Params("id"))
	if entry == nil {
		return NotFoundError("dataset", c.Params("id"))
	}

	var req RuleRequest
	if err := c.BodyParser(&req); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	sel, fit, appErr := compileExpressions(req.Selector, req.Fitness)
	if appErr != nil {
		return appErr
	}

	_, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "engine", "mining", "rule.evaluate")
	defer span.End()
	span.SetEntity("dataset", entry.Info.ID)

	result, appErr := evaluateCandidate(entry.Data, req.Candidate, sel, fit)
	if appErr != nil {
		span.SetStatus("error")
		return appErr
	}

	span.SetStatus("ok")
	return c.JSON(fiber.Map{"data": result})
}
