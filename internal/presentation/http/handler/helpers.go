package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/presentation/http/dto/response"
)

// parseID reads the :id path parameter. An id that is not a UUID cannot name
// a stored record, so it is answered with notFound.
func parseID(c *gin.Context, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, notFound)
		return uuid.Nil, false
	}
	return id, true
}
