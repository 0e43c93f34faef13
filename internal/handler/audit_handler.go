package handler

import (
	"net/http"

	"erpcrm/internal/middleware"
	"erpcrm/internal/repository"
	"erpcrm/internal/service"
	"erpcrm/pkg/pagination"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	router.GET("/api/audit-logs", auth.RequirePermission("audit.read"), h.GetAuditLogs)
}

// GetAuditLogs retrieves the audit trail, newest first
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Param        entity_type  query     string  false  "e.g. sales_order"
// @Param        entity_id    query     string  false  "Entity ID"
// @Param        action       query     string  false  "e.g. CREATE, DELETE, CHANGE_STATUS, PAY"
// @Param        user_id      query     string  false  "Acting user"
// @Success      200          {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Action:     c.Query("action"),
		UserID:     c.Query("user_id"),
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
