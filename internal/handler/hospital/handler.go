package hospital

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medhaven/hospital-api/internal/handler"
	"github.com/medhaven/hospital-api/internal/model"
	hospitalService "github.com/medhaven/hospital-api/internal/service/hospital"
)

type Handler struct {
	service *hospitalService.Service
	auth    gin.HandlerFunc
}

func NewHandler(service *hospitalService.Service, auth gin.HandlerFunc) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	hospital := r.Group("/hospital")
	{
		hospital.POST("", h.auth, h.Create)
		hospital.GET("", h.Get)
		hospital.PUT("/:id", h.auth, h.Update)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	hospital, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(hospital))
}

func (h *Handler) Get(c *gin.Context) {
	hospital, err := h.service.GetCurrent(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(hospital))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid hospital ID"))
		return
	}

	var req model.UpdateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	hospital, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(hospital))
}
