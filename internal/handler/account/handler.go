package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medhaven/hospital-api/internal/handler"
	"github.com/medhaven/hospital-api/internal/middleware"
	"github.com/medhaven/hospital-api/internal/model"
	accountService "github.com/medhaven/hospital-api/internal/service/account"
)

// Handler exposes the lifecycle endpoints for one principal kind. The route
// group name is the plural of the kind, e.g. /administrators.
type Handler struct {
	service *accountService.Service
	auth    gin.HandlerFunc
}

// NewHandler wires the endpoints for service's kind. auth guards the
// endpoints that require an authenticated caller.
func NewHandler(service *accountService.Service, auth gin.HandlerFunc) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/" + string(h.service.Kind()) + "s")
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.POST("/login", h.Login)
		group.POST("/login/refresh", h.LoginWithRefreshToken)

		group.PUT("/me", h.auth, h.UpdateSelf)
		group.PUT("/:id", h.auth, h.Update)
		group.DELETE("/:id", h.auth, h.Delete)
		group.POST("/:id/restore", h.auth, h.Restore)
		group.POST("/roles", h.auth, h.AddRole)
		group.DELETE("/roles", h.auth, h.RemoveRole)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePrincipalRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	image, err := c.FormFile("image")
	if err != nil && err != http.ErrMissingFile {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid image upload"))
		return
	}

	principal, err := h.service.Create(c.Request.Context(), &req, image)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(principal))
}

func (h *Handler) List(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"

	items, err := h.service.List(c.Request.Context(), includeDeleted)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) LoginWithRefreshToken(c *gin.Context) {
	var req model.RefreshLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.LoginWithRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

// UpdateSelf updates the authenticated caller's own record.
func (h *Handler) UpdateSelf(c *gin.Context) {
	actorID, ok := middleware.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}
	h.update(c, actorID)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid principal ID"))
		return
	}
	h.update(c, id)
}

func (h *Handler) update(c *gin.Context, id uuid.UUID) {
	var req model.UpdatePrincipalRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	image, err := c.FormFile("image")
	if err != nil && err != http.ErrMissingFile {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid image upload"))
		return
	}

	principal, err := h.service.Update(c.Request.Context(), id, &req, image)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(principal))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid principal ID"))
		return
	}

	if err := h.service.SoftDelete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Restore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid principal ID"))
		return
	}

	if err := h.service.RevertSoftDelete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) AddRole(c *gin.Context) {
	var req model.RoleMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.AddRole(c.Request.Context(), req.Username, req.Role); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) RemoveRole(c *gin.Context) {
	var req model.RoleMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.RemoveRole(c.Request.Context(), req.Username, req.Role); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
