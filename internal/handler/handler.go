package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"erpcrm/internal/export"
	"erpcrm/internal/logger"
	"erpcrm/internal/middleware"
	"erpcrm/internal/service"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusUnprocessableEntity, response.ValidationError(http.StatusUnprocessableEntity, map[string]string{
			fieldErr.Field: fieldErr.Message,
		}))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

// bindJSON decodes the body into req, writing the error response itself on failure
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationError(http.StatusUnprocessableEntity, validationBag(verrs)))
		return false
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationError(http.StatusUnprocessableEntity, map[string]string{
			typeErr.Field: "has an invalid type",
		}))
		return false
	}

	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
	return false
}

// validationBag turns validator errors into field -> message, e.g. "items.0.quantity"
func validationBag(verrs validator.ValidationErrors) map[string]string {
	bag := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		field = strings.NewReplacer("[", ".", "]", "").Replace(field)
		if _, exists := bag[field]; !exists {
			bag[field] = validationMessage(fe)
		}
	}
	return bag
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "money":
		return "must be a non-negative amount with at most two decimals"
	case "percent":
		return "must be a percentage between 0 and 100"
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

// boolQuery reads an optional true/false query parameter
func boolQuery(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// dateQuery reads an optional YYYY-MM-DD query parameter
func dateQuery(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil
	}
	return &t
}

// sendCSV streams an export table as an attachment
func sendCSV(c *gin.Context, table *export.Table) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.FileName(time.Now())))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, table); err != nil {
		logger.FromContext(c.Request.Context()).Error("csv export failed", zap.Error(err))
	}
}

// lifecycleRoutes registers soft delete, permanent delete and restore for a resource
func lifecycleRoutes(group *gin.RouterGroup, auth *middleware.Auth, resource string, svc service.Lifecycle) {
	group.DELETE("/:id", auth.RequirePermission(resource+".delete"), func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Deleted successfully"}))
	})
	group.DELETE("/:id/force", auth.RequirePermission(resource+".force_delete"), func(c *gin.Context) {
		if err := svc.ForceDelete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permanently deleted"}))
	})
	group.POST("/:id/restore", auth.RequirePermission(resource+".delete"), func(c *gin.Context) {
		if err := svc.Restore(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Restored successfully"}))
	})
}
