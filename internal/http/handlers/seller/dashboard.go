package seller

import (
	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboard 当前卖家指标看板
func (h *Handler) GetDashboard(c *gin.Context) {
	identity, ok := shared.CurrentIdentity(c)
	if !ok {
		return
	}
	snapshot, err := h.DashboardService.GetSellerMetrics(shared.RequestContext(c), identity.EffectiveID())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, snapshot)
}
