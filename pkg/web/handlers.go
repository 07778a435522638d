package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
	"github.com/revisio/revisio/pkg/services"
)

type APIHandlers struct {
	revisionService *services.Revision
	queryService    *services.Query
	validator       *validator.Validate
}

func NewAPIHandlers(
	revisionService *services.Revision,
	queryService *services.Query,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		revisionService: revisionService,
		queryService:    queryService,
		validator:       validator,
	}
}

func (h *APIHandlers) GetTransformations(c fiber.Ctx) error {
	params, err := h.parseFilterParams(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.queryService.List(c.Context(), *params)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// parseFilterParams maps the query string onto FilterParams. Unset parameters
// keep the registry defaults, notably include_deprecated=true.
func (h *APIHandlers) parseFilterParams(c fiber.Ctx) (*models.FilterParams, error) {
	params := models.DefaultFilterParams()

	if typeStr := c.Query("type"); typeStr != "" {
		revisionType := models.Type(typeStr)
		params.Type = &revisionType
	}

	if stateStr := c.Query("state"); stateStr != "" {
		state := models.State(stateStr)
		params.State = &state
	}

	if category := c.Query("category"); category != "" {
		params.Category = &category
	}

	if groupStr := c.Query("revision_group_id"); groupStr != "" {
		groupID, err := uuid.Parse(groupStr)
		if err != nil {
			return nil, err
		}

		params.RevisionGroupID = &groupID
	}

	if idsStr := c.Query("ids"); idsStr != "" {
		for _, raw := range strings.Split(idsStr, ",") {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}

			params.IDs = append(params.IDs, id)
		}
	}

	if namesStr := c.Query("names"); namesStr != "" {
		for _, name := range strings.Split(namesStr, ",") {
			params.Names = append(params.Names, strings.TrimSpace(name))
		}
	}

	for _, flag := range []struct {
		name   string
		target *bool
	}{
		{"include_deprecated", &params.IncludeDeprecated},
		{"include_dependencies", &params.IncludeDependencies},
		{"unused", &params.Unused},
	} {
		if raw := c.Query(flag.name); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, err
			}

			*flag.target = value
		}
	}

	return &params, nil
}

func (h *APIHandlers) GetTransformation(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid transformation revision ID")
	}

	revision, err := h.revisionService.GetByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(revision)
}

func (h *APIHandlers) CreateTransformation(c fiber.Ctx) error {
	var req CreateRevisionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.revisionService.Create(c.Context(), req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateTransformation(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid transformation revision ID")
	}

	var req UpdateRevisionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.revisionService.Update(c.Context(), id, req.ToModel())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteTransformation(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid transformation revision ID")
	}

	if err := h.revisionService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ReleaseTransformation(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid transformation revision ID")
	}

	released, err := h.revisionService.Release(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(released)
}

func (h *APIHandlers) DisableTransformation(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid transformation revision ID")
	}

	disabled, err := h.revisionService.Disable(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(disabled)
}

func (h *APIHandlers) GetDescendants(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid transformation revision ID")
	}

	descendants, err := h.queryService.Descendants(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if descendants == nil {
		descendants = []models.Descendant{}
	}

	return c.JSON(descendants)
}

func (h *APIHandlers) GetAncestors(c fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid transformation revision ID")
	}

	ancestors, err := h.queryService.Ancestors(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if ancestors == nil {
		ancestors = []uuid.UUID{}
	}

	return c.JSON(ancestors)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.revisionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Revisio API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Revisio API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func parseIDParam(c fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}
