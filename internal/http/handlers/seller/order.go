package seller

import (
	"strings"

	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOrders 当前卖家订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	identity, ok := shared.CurrentIdentity(c)
	if !ok {
		return
	}
	page, pageSize := shared.QueryPagination(c)
	createdFrom, err := shared.ParseTimeNullable(c.Query("created_from"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := shared.ParseTimeNullable(c.Query("created_to"))
	if err != nil {
		shared.RespondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}

	orders, total, err := h.SellerOrderService.List(shared.RequestContext(c), identity, repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情（校验归属）
func (h *Handler) GetOrder(c *gin.Context) {
	identity, ok := shared.CurrentIdentity(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		shared.RespondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.SellerOrderService.Get(shared.RequestContext(c), identity, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
