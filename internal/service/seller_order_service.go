package service

import (
	"context"

	"github.com/techphorix/w-store-sub004/internal/authz"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"
)

// SellerOrderService 卖家订单查询（只读）
type SellerOrderService struct {
	orderRepo repository.OrderRepository
	gate      *authz.Gate
}

// NewSellerOrderService 创建卖家订单服务
func NewSellerOrderService(orderRepo repository.OrderRepository, gate *authz.Gate) *SellerOrderService {
	return &SellerOrderService{orderRepo: orderRepo, gate: gate}
}

// List 查询生效账号名下的订单
func (s *SellerOrderService) List(ctx context.Context, actor authz.Actor, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if actor == nil || actor.EffectiveID() == 0 {
		return nil, 0, ErrAccessDenied
	}
	filter.SellerID = actor.EffectiveID()
	return s.orderRepo.ListBySeller(ctx, filter)
}

// Get 查询单个订单，先校验归属
func (s *SellerOrderService) Get(ctx context.Context, actor authz.Actor, orderID uint) (*models.Order, error) {
	if err := s.gate.CheckOwnership(ctx, actor, "orders", orderID); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}
