package admin

import (
	"strings"

	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PutOverrideRequest 写入覆盖值请求
type PutOverrideRequest struct {
	MetricName string           `json:"metric_name"`
	MetricKey  string           `json:"metricName"`
	Value      *decimal.Decimal `json:"value" binding:"required"` // 精度与取值范围由服务层按指标处理
}

func (r PutOverrideRequest) metric() string {
	if name := strings.TrimSpace(r.MetricName); name != "" {
		return name
	}
	return strings.TrimSpace(r.MetricKey)
}

// ListSellerOverrides 卖家覆盖值列表
func (h *Handler) ListSellerOverrides(c *gin.Context) {
	sellerID, ok := parseSellerID(c)
	if !ok {
		return
	}
	entries, err := h.OverrideService.List(shared.RequestContext(c), sellerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entries)
}

// PutSellerOverride 写入卖家指标覆盖值（upsert）
func (h *Handler) PutSellerOverride(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	sellerID, ok := parseSellerID(c)
	if !ok {
		return
	}
	var req PutOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.invalid_value", nil)
		return
	}
	metric := req.metric()

	entry, err := h.OverrideService.Put(shared.RequestContext(c), sellerID, metric, *req.Value, adminID)
	if err != nil {
		respondServiceError(c, err, metric)
		return
	}
	requestLog(c).Infow("admin_override_put",
		"admin_id", adminID,
		"seller_id", sellerID,
		"metric_name", entry.MetricName,
		"value", entry.OverrideValue.String(),
	)
	response.Success(c, entry)
}

// DeleteSellerOverride 删除覆盖值，读者恢复看到真实值
func (h *Handler) DeleteSellerOverride(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	sellerID, ok := parseSellerID(c)
	if !ok {
		return
	}
	metric := c.Param("metric")
	if err := h.OverrideService.Delete(shared.RequestContext(c), sellerID, metric, adminID); err != nil {
		respondServiceError(c, err, metric)
		return
	}
	response.Success(c, gin.H{
		"seller_id":   sellerID,
		"metric_name": strings.ToLower(strings.TrimSpace(metric)),
		"deleted":     true,
	})
}

// ClearSellerOverride 将覆盖值置为中性值（保留记录）
func (h *Handler) ClearSellerOverride(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	sellerID, ok := parseSellerID(c)
	if !ok {
		return
	}
	metric := c.Param("metric")
	entry, err := h.OverrideService.Clear(shared.RequestContext(c), sellerID, metric, adminID)
	if err != nil {
		respondServiceError(c, err, metric)
		return
	}
	response.Success(c, entry)
}
