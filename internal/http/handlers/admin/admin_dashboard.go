package admin

import (
	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSellerDashboard 卖家指标看板（真实值叠加覆盖值）
func (h *Handler) GetSellerDashboard(c *gin.Context) {
	sellerID, ok := parseSellerID(c)
	if !ok {
		return
	}
	snapshot, err := h.DashboardService.GetSellerMetrics(shared.RequestContext(c), sellerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// ReconcileSellerMetrics 以调用方提供的真实值快照与当前覆盖值合并
// 用于外部统计结果的预览，不落库
func (h *Handler) ReconcileSellerMetrics(c *gin.Context) {
	sellerID, ok := parseSellerID(c)
	if !ok {
		return
	}
	var base service.MetricSnapshot
	if err := c.ShouldBindJSON(&base); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	base.SellerID = sellerID

	snapshot, err := h.MetricReconciler.Reconcile(shared.RequestContext(c), sellerID, base)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, snapshot)
}
