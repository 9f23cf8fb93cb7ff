package main

import (
	"fmt"
	"time"

	"github.com/techphorix/w-store-sub004/internal/authz"
	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 演示账号统一密码，仅用于本地开发
const demoPassword = "Passw0rd!"

type demoPrincipal struct {
	Email       string
	DisplayName string
	Role        string
	Locale      string
}

type demoStats struct {
	Email          string
	OrdersSold     int64
	TotalSales     string
	ProfitForecast string
	Visitors       int64
	ShopFollowers  int64
	ShopRating     string
	CreditScore    int64
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 预置角色策略
	if err := authz.SeedRolePolicies(models.DB); err != nil {
		stdLog.Fatalf("Failed to seed role policies: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	// 添加账号
	principals := []demoPrincipal{
		{Email: "admin@wstore.local", DisplayName: "运营管理员", Role: constants.RoleAdmin, Locale: "zh-CN"},
		{Email: "ops@wstore.local", DisplayName: "Ops Admin", Role: constants.RoleAdmin, Locale: "en-US"},
		{Email: "seller.alpha@wstore.local", DisplayName: "Alpha 数码", Role: constants.RoleSeller, Locale: "zh-CN"},
		{Email: "seller.beta@wstore.local", DisplayName: "Beta Lifestyle", Role: constants.RoleSeller, Locale: "en-US"},
		{Email: "seller.gamma@wstore.local", DisplayName: "Gamma 配件", Role: constants.RoleSeller, Locale: "zh-CN"},
		{Email: "buyer.one@wstore.local", DisplayName: "买家一号", Role: constants.RoleUser, Locale: "zh-CN"},
		{Email: "buyer.two@wstore.local", DisplayName: "Buyer Two", Role: constants.RoleUser, Locale: "en-US"},
	}

	ids := map[string]uint{}
	now := time.Now()
	for _, item := range principals {
		var existing models.User
		if err := models.DB.Where("email = ?", item.Email).First(&existing).Error; err == nil {
			ids[item.Email] = existing.ID
			stdLog.Printf("Principal already exists: %s", item.Email)
			continue
		}
		user := models.User{
			Email:           item.Email,
			PasswordHash:    string(hash),
			DisplayName:     item.DisplayName,
			Role:            item.Role,
			Status:          constants.UserStatusActive,
			Locale:          item.Locale,
			EmailVerifiedAt: &now,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create principal %s: %v", item.Email, err)
			continue
		}
		ids[item.Email] = user.ID
		stdLog.Printf("Created principal: %s (%s)", item.Email, item.Role)
	}

	// 卖家真实指标
	stats := []demoStats{
		{Email: "seller.alpha@wstore.local", OrdersSold: 1280, TotalSales: "256340.50", ProfitForecast: "38451.08", Visitors: 48210, ShopFollowers: 3120, ShopRating: "4.7", CreditScore: 780},
		{Email: "seller.beta@wstore.local", OrdersSold: 342, TotalSales: "41820.00", ProfitForecast: "6273.00", Visitors: 9870, ShopFollowers: 512, ShopRating: "3.8", CreditScore: 640},
		{Email: "seller.gamma@wstore.local", OrdersSold: 12, TotalSales: "860.40", ProfitForecast: "86.04", Visitors: 730, ShopFollowers: 18, ShopRating: "2.9", CreditScore: 420},
	}
	for _, item := range stats {
		sellerID, ok := ids[item.Email]
		if !ok {
			continue
		}
		computedAt := now
		row := models.SellerStats{
			SellerID:       sellerID,
			OrdersSold:     models.NewMetricValueFromInt(item.OrdersSold),
			TotalSales:     models.NewMetricValue(decimal.RequireFromString(item.TotalSales)),
			ProfitForecast: models.NewMetricValue(decimal.RequireFromString(item.ProfitForecast)),
			Visitors:       models.NewMetricValueFromInt(item.Visitors),
			ShopFollowers:  models.NewMetricValueFromInt(item.ShopFollowers),
			ShopRating:     models.NewMetricValue(decimal.RequireFromString(item.ShopRating)),
			CreditScore:    models.NewMetricValueFromInt(item.CreditScore),
			ComputedAt:     &computedAt,
		}
		var existing models.SellerStats
		if err := models.DB.Where("seller_id = ?", sellerID).Assign(row).FirstOrCreate(&existing).Error; err != nil {
			stdLog.Printf("Failed to save stats for %s: %v", item.Email, err)
			continue
		}
		stdLog.Printf("Saved stats for seller: %s", item.Email)
	}

	// 添加订单
	buyers := []string{"buyer.one@wstore.local", "buyer.two@wstore.local"}
	statuses := []string{
		constants.OrderStatusCompleted,
		constants.OrderStatusPaid,
		constants.OrderStatusPendingPayment,
		constants.OrderStatusCanceled,
	}
	for sellerIndex, item := range stats {
		sellerID, ok := ids[item.Email]
		if !ok {
			continue
		}
		for i := 0; i < 6; i++ {
			orderNo := fmt.Sprintf("WS%s%02d%03d", now.Format("20060102"), sellerIndex+1, i+1)
			var count int64
			models.DB.Model(&models.Order{}).Where("order_no = ?", orderNo).Count(&count)
			if count > 0 {
				continue
			}
			buyerID := ids[buyers[i%len(buyers)]]
			status := statuses[i%len(statuses)]
			createdAt := now.Add(-time.Duration(i*36) * time.Hour)
			order := models.Order{
				OrderNo:     orderNo,
				SellerID:    sellerID,
				UserID:      buyerID,
				TotalAmount: models.NewMetricValue(decimal.NewFromInt(int64(39 + i*20)).Add(decimal.RequireFromString("0.90"))),
				Status:      status,
				CreatedAt:   createdAt,
			}
			if status == constants.OrderStatusPaid || status == constants.OrderStatusCompleted {
				paidAt := createdAt.Add(10 * time.Minute)
				order.PaidAt = &paidAt
			}
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", orderNo, err)
				continue
			}
		}
		stdLog.Printf("Seeded orders for seller: %s", item.Email)
	}

	stdLog.Printf("Seed completed, demo password: %s", demoPassword)
}
