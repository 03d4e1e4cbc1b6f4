package handlers

import (
	"net/http"

	"github.com/cabanga/smail/internal/api/dto/common"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, common.NewSuccessResult("Health check OK"))
}
