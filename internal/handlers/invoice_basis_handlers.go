package handlers

import (
	"net/http"
	"strconv"

	"byggmart/internal/common"
	"byggmart/internal/models"
	"byggmart/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceBasisHandlers handles HTTP requests for invoice basis documents.
type InvoiceBasisHandlers struct {
	basisService  services.InvoiceBasisService
	exportService services.ExportService
}

func NewInvoiceBasisHandlers(basisService services.InvoiceBasisService, exportService services.ExportService) *InvoiceBasisHandlers {
	return &InvoiceBasisHandlers{
		basisService:  basisService,
		exportService: exportService,
	}
}

// FindByPeriod handles GET /projects/:projectId/invoice-basis
func (h *InvoiceBasisHandlers) FindByPeriod(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	projectID, err := common.ValidateUUID(c.Param("projectId"), "projectId")
	if err != nil {
		return common.RespondError(c, err)
	}

	periodStart, err := models.ParseDate(c.QueryParam("period_start"))
	if err != nil {
		return common.SendClientError(c, "period_start must be YYYY-MM-DD")
	}
	periodEnd, err := models.ParseDate(c.QueryParam("period_end"))
	if err != nil {
		return common.SendClientError(c, "period_end must be YYYY-MM-DD")
	}

	doc, err := h.basisService.FindByPeriod(ctx, principal, projectID, periodStart, periodEnd)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// GetByID handles GET /invoice-basis/:id
func (h *InvoiceBasisHandlers) GetByID(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.RespondError(c, err)
	}

	doc, err := h.basisService.GetByID(ctx, principal, id)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// UpdateHeader handles PUT /invoice-basis/:id/header
func (h *InvoiceBasisHandlers) UpdateHeader(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.RespondError(c, err)
	}

	var update services.HeaderUpdate
	if err := c.Bind(&update); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	doc, err := h.basisService.UpdateHeader(ctx, principal, id, &update)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// UpdateLine handles PUT /invoice-basis/:id/lines/:lineId
func (h *InvoiceBasisHandlers) UpdateLine(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.RespondError(c, err)
	}
	lineID, err := common.ValidateUUID(c.Param("lineId"), "lineId")
	if err != nil {
		return common.RespondError(c, err)
	}

	var update services.LineUpdate
	if err := c.Bind(&update); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	doc, err := h.basisService.UpdateLine(ctx, principal, id, lineID, &update)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// Lock handles POST /invoice-basis/:id/lock
func (h *InvoiceBasisHandlers) Lock(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.RespondError(c, err)
	}

	var req services.LockRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	doc, err := h.basisService.Lock(ctx, principal, id, &req)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// ExportPDF handles POST /invoice-basis/:id/pdf
func (h *InvoiceBasisHandlers) ExportPDF(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.RespondError(c, err)
	}

	result, err := h.exportService.ExportPDF(ctx, principal, id)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// AuditTrail handles GET /invoice-basis/:id/audit
func (h *InvoiceBasisHandlers) AuditTrail(c echo.Context) error {
	ctx := c.Request().Context()
	principal, ok := common.GetPrincipalFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.RespondError(c, err)
	}

	limit := 50
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	entries, err := h.basisService.AuditTrail(ctx, principal, id, limit, offset)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}
