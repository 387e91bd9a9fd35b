package handler

import (
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// page sends a paginated list as data plus meta
func page[T any](h *BaseHandler, c *gin.Context, p *shared.Paginated[T]) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	h.SuccessWithMeta(c, items, p.Total, p.Page, p.PageSize)
}
