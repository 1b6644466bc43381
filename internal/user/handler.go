// File: internal/user/handler.go
package user

import (
	"errors"

	"garment_portal_gateway/internal/common"
	"garment_portal_gateway/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves directory administration for the admin dashboard.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler. A nil service yields a nil
// handler: without a directory there is nothing to administer.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if service == nil {
		return nil
	}
	return &Handler{service: service, logger: logger.Named("UserHandler")}
}

// RegisterRoutes mounts /admin/users behind the given middleware chain.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, mw ...gin.HandlerFunc) {
	admin := router.Group("/admin/users", mw...)
	{
		admin.GET("", h.list)
		admin.POST("", h.create)
		admin.PATCH("/:id/role", h.updateRole)
		admin.PATCH("/:id/status", h.updateStatus)
	}
}

func (h *Handler) list(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	common.RespondOK(c, "Users retrieved.", out)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateUserRequest
	if !bind(c, h.logger, &req) {
		return
	}
	u, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondSuccess(c, 201, "User created.", ToUserResponse(u))
}

func (h *Handler) updateRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if !bind(c, h.logger, &req) {
		return
	}
	u, err := h.service.SetRole(c.Request.Context(), id, domain.ParseRole(req.Role))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Role updated.", ToUserResponse(u))
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bind(c, h.logger, &req) {
		return
	}
	u, err := h.service.SetStatus(c.Request.Context(), id, domain.ProfileStatus(req.Status))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Status updated.", ToUserResponse(u))
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid user ID format."))
		return uuid.Nil, false
	}
	return id, true
}

func bind(c *gin.Context, logger *zap.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Debug("Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}
