package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/techphorix/w-store-sub004/internal/client/session"
	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/shopspring/decimal"
)

// Snapshot 合并覆盖值后的卖家指标快照
type Snapshot struct {
	SellerID       uint            `json:"seller_id"`
	OrdersSold     decimal.Decimal `json:"orders_sold"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	ProfitForecast decimal.Decimal `json:"profit_forecast"`
	Visitors       decimal.Decimal `json:"visitors"`
	ShopFollowers  decimal.Decimal `json:"shop_followers"`
	ShopRating     decimal.Decimal `json:"shop_rating"`
	CreditScore    decimal.Decimal `json:"credit_score"`
	ComputedAt     *time.Time      `json:"computed_at"`
	Overridden     []string        `json:"overridden"`
}

func (s *Snapshot) field(metric string) *decimal.Decimal {
	switch metric {
	case constants.MetricOrdersSold:
		return &s.OrdersSold
	case constants.MetricTotalSales:
		return &s.TotalSales
	case constants.MetricProfitForecast:
		return &s.ProfitForecast
	case constants.MetricVisitors:
		return &s.Visitors
	case constants.MetricShopFollowers:
		return &s.ShopFollowers
	case constants.MetricShopRating:
		return &s.ShopRating
	case constants.MetricCreditScore:
		return &s.CreditScore
	}
	return nil
}

// Value 按指标名读取
func (s *Snapshot) Value(metric string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Zero, false
	}
	field := s.field(metric)
	if field == nil {
		return decimal.Zero, false
	}
	return *field, true
}

// IsOverridden 指标是否被覆盖
func (s *Snapshot) IsOverridden(metric string) bool {
	if s == nil {
		return false
	}
	for _, name := range s.Overridden {
		if name == metric {
			return true
		}
	}
	return false
}

// Override 卖家指标覆盖值
type Override struct {
	ID            uint            `json:"id"`
	SellerID      uint            `json:"seller_id"`
	MetricName    string          `json:"metric_name"`
	OverrideValue decimal.Decimal `json:"override_value"`
	OriginalValue decimal.Decimal `json:"original_value"`
	UpdatedBy     uint            `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Me 当前身份
type Me struct {
	User            session.Principal  `json:"user"`
	Impersonating   bool               `json:"impersonating"`
	AuthorizingUser *session.Principal `json:"authorizing_user"`
	ExpiresAt       string             `json:"expires_at"`
}

// Order 卖家订单
type Order struct {
	ID          uint            `json:"id"`
	OrderNo     string          `json:"order_no"`
	SellerID    uint            `json:"seller_id"`
	UserID      uint            `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

type putOverrideRequest struct {
	MetricName string          `json:"metric_name"`
	Value      decimal.Decimal `json:"value"`
}

// Me 查询当前身份
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.Do(ctx, http.MethodGet, "/api/v1/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// MyDashboard 当前生效卖家的指标看板
func (c *Client) MyDashboard(ctx context.Context) (*Snapshot, error) {
	var snapshot Snapshot
	if err := c.Do(ctx, http.MethodGet, "/api/v1/seller/dashboard", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// MyOrders 当前生效卖家的订单
func (c *Client) MyOrders(ctx context.Context, page, pageSize int) ([]Order, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		query.Set("page_size", fmt.Sprint(pageSize))
	}
	path := "/api/v1/seller/orders"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var orders []Order
	if err := c.Do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SellerDashboard 管理端查看卖家指标
func (c *Client) SellerDashboard(ctx context.Context, sellerID uint) (*Snapshot, error) {
	var snapshot Snapshot
	if err := c.Do(ctx, http.MethodGet, sellerPath(sellerID, "dashboard"), nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListOverrides 卖家覆盖值列表
func (c *Client) ListOverrides(ctx context.Context, sellerID uint) ([]Override, error) {
	var entries []Override
	if err := c.Do(ctx, http.MethodGet, sellerPath(sellerID, "overrides"), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PutOverride 写入覆盖值
func (c *Client) PutOverride(ctx context.Context, sellerID uint, metric string, value decimal.Decimal) (*Override, error) {
	var entry Override
	body := putOverrideRequest{MetricName: metric, Value: value}
	if err := c.Do(ctx, http.MethodPost, sellerPath(sellerID, "overrides"), body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteOverride 删除覆盖值
func (c *Client) DeleteOverride(ctx context.Context, sellerID uint, metric string) error {
	return c.Do(ctx, http.MethodDelete, sellerPath(sellerID, "overrides", url.PathEscape(metric)), nil, nil)
}

// ClearOverride 将覆盖值置为中性值
func (c *Client) ClearOverride(ctx context.Context, sellerID uint, metric string) (*Override, error) {
	var entry Override
	if err := c.Do(ctx, http.MethodPut, sellerPath(sellerID, "overrides", url.PathEscape(metric), "clear"), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func sellerPath(sellerID uint, parts ...string) string {
	return fmt.Sprintf("/api/v1/admin/seller/%d/%s", sellerID, strings.Join(parts, "/"))
}
