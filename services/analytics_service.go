package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"restaurant-api/models"
	"restaurant-api/policy"
)

type AnalyticsService struct{ deps }

// DateRange bounds a report by order completion time, both ends inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrValidation)
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("%w: range ends before it starts", ErrValidation)
	}
	return nil
}

// utc moves both bounds to UTC so they compare with stored timestamps.
func (r DateRange) utc() DateRange {
	return DateRange{From: r.From.UTC(), To: r.To.UTC()}
}

type DashboardStats struct {
	TodayRevenue   float64                `json:"today_revenue"`
	TodayOrders    int64                  `json:"today_orders"`
	LowStockAlerts int64                  `json:"low_stock_alerts"`
	LowStockItems  []models.InventoryItem `json:"low_stock_items"`
}

type ItemSales struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Revenue    float64 `json:"revenue"`
}

type HourlySales struct {
	Hour    int     `json:"hour"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type CategoryRevenue struct {
	Category  string  `json:"category"`
	Revenue   float64 `json:"revenue"`
	ItemsSold int     `json:"items_sold"`
}

type StaffPerformance struct {
	Name       string  `json:"name"`
	OrderCount int     `json:"order_count"`
	Revenue    float64 `json:"revenue"`
}

type LaborStats struct {
	TotalHours   float64 `json:"total_hours"`
	EstLaborCost float64 `json:"est_labor_cost"`
	ShiftCount   int     `json:"shift_count"`
	HourlyRate   float64 `json:"hourly_rate"`
}

// CounterOperator names guest orders that no staff member placed.
const CounterOperator = "Counter"

const dashboardLowStockLimit = 6

// Dashboard summarizes today: revenue from orders completed today, orders
// placed today and the low-stock list.
func (s *AnalyticsService) Dashboard(ctx context.Context, actor Actor) (*DashboardStats, error) {
	if err := authorize(policy.OpViewDashboard, actor); err != nil {
		return nil, err
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UTC()
	db := s.db.WithContext(ctx)

	var stats DashboardStats
	var revenue struct{ Total float64 }
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status = ? AND updated_at >= ?", models.StatusCompleted, today).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	stats.TodayRevenue = round2(revenue.Total)

	if err := db.Model(&models.Order{}).Where("created_at >= ?", today).Count(&stats.TodayOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.InventoryItem{}).Where("quantity <= threshold").Count(&stats.LowStockAlerts).Error; err != nil {
		return nil, err
	}
	stats.LowStockItems = []models.InventoryItem{}
	if stats.LowStockAlerts > 0 {
		if err := db.Where("quantity <= threshold").
			Order("quantity asc").
			Limit(dashboardLowStockLimit).
			Find(&stats.LowStockItems).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// completedOrders loads orders completed inside r with lines, menu items,
// categories and operator.
func (s *AnalyticsService) completedOrders(ctx context.Context, r DateRange) ([]models.Order, error) {
	r = r.utc()
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.MenuItem.Category").
		Preload("User").
		Where("status = ? AND updated_at >= ? AND updated_at <= ?", models.StatusCompleted, r.From, r.To).
		Order("updated_at desc").Order("id desc").
		Find(&orders).Error
	return orders, err
}

// SalesReport lists orders completed inside r, newest first.
func (s *AnalyticsService) SalesReport(ctx context.Context, actor Actor, r DateRange) ([]models.Order, error) {
	if err := authorize(policy.OpViewReports, actor); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return s.completedOrders(ctx, r)
}

// TopSelling ranks menu items by units sold. Revenue uses the price each line
// was sold at.
func (s *AnalyticsService) TopSelling(ctx context.Context, actor Actor, r DateRange, limit int) ([]ItemSales, error) {
	if err := authorize(policy.OpViewReports, actor); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	r = r.utc()
	var rows []ItemSales
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.menu_item_id AS menu_item_id, MAX(order_items.name) AS name, "+
			"SUM(order_items.quantity) AS quantity, SUM(order_items.quantity * order_items.price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ? AND orders.updated_at >= ? AND orders.updated_at <= ?", models.StatusCompleted, r.From, r.To).
		Group("order_items.menu_item_id").
		Order("quantity desc").Order("menu_item_id asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Revenue = round2(rows[i].Revenue)
		if rows[i].Name == "" {
			rows[i].Name = "Unknown"
		}
	}
	return rows, nil
}

// Hourly buckets completed orders by local hour of completion. All 24 hours
// are present.
func (s *AnalyticsService) Hourly(ctx context.Context, actor Actor, r DateRange) ([]HourlySales, error) {
	if err := authorize(policy.OpViewReports, actor); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	loc := r.From.Location()
	r = r.utc()
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Select("id", "updated_at", "total_amount").
		Where("status = ? AND updated_at >= ? AND updated_at <= ?", models.StatusCompleted, r.From, r.To).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return BucketByHour(orders, loc), nil
}

// BucketByHour folds orders into 24 hourly buckets in loc.
func BucketByHour(orders []models.Order, loc *time.Location) []HourlySales {
	out := make([]HourlySales, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, o := range orders {
		h := o.UpdatedAt.In(loc).Hour()
		out[h].Count++
		out[h].Revenue += o.TotalAmount
	}
	for h := range out {
		out[h].Revenue = round2(out[h].Revenue)
	}
	return out
}

// CategoryRevenue sums sold lines per menu category, highest revenue first.
func (s *AnalyticsService) CategoryRevenue(ctx context.Context, actor Actor, r DateRange) ([]CategoryRevenue, error) {
	if err := authorize(policy.OpViewReports, actor); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	orders, err := s.completedOrders(ctx, r)
	if err != nil {
		return nil, err
	}
	byName := map[string]*CategoryRevenue{}
	for _, o := range orders {
		for _, it := range o.Items {
			name := "Uncategorized"
			if it.MenuItem != nil && it.MenuItem.Category != nil {
				name = it.MenuItem.Category.Name
			}
			c, ok := byName[name]
			if !ok {
				c = &CategoryRevenue{Category: name}
				byName[name] = c
			}
			c.Revenue += it.Price * float64(it.Quantity)
			c.ItemsSold += it.Quantity
		}
	}
	out := make([]CategoryRevenue, 0, len(byName))
	for _, c := range byName {
		c.Revenue = round2(c.Revenue)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// StaffPerformance sums completed orders per operator. Guest orders count
// under CounterOperator.
func (s *AnalyticsService) StaffPerformance(ctx context.Context, actor Actor, r DateRange) ([]StaffPerformance, error) {
	if err := authorize(policy.OpViewReports, actor); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	orders, err := s.completedOrders(ctx, r)
	if err != nil {
		return nil, err
	}
	byName := map[string]*StaffPerformance{}
	for _, o := range orders {
		name := OperatorName(o)
		p, ok := byName[name]
		if !ok {
			p = &StaffPerformance{Name: name}
			byName[name] = p
		}
		p.OrderCount++
		p.Revenue += o.TotalAmount
	}
	out := make([]StaffPerformance, 0, len(byName))
	for _, p := range byName {
		p.Revenue = round2(p.Revenue)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// OperatorName is the staff member who placed o, or CounterOperator.
func OperatorName(o models.Order) string {
	if o.User != nil && o.User.Name != "" {
		return o.User.Name
	}
	return CounterOperator
}

// Labor totals closed shifts that started and ended inside r.
func (s *AnalyticsService) Labor(ctx context.Context, actor Actor, r DateRange) (*LaborStats, error) {
	if err := authorize(policy.OpViewReports, actor); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	r = r.utc()
	var shifts []models.Shift
	if err := s.db.WithContext(ctx).
		Where("start_time >= ? AND end_time IS NOT NULL AND end_time <= ?", r.From, r.To).
		Find(&shifts).Error; err != nil {
		return nil, err
	}
	var worked time.Duration
	for _, sh := range shifts {
		if sh.EndTime != nil {
			worked += sh.EndTime.Sub(sh.StartTime)
		}
	}
	hours := worked.Hours()
	return &LaborStats{
		TotalHours:   math.Round(hours*10) / 10,
		EstLaborCost: round2(hours * s.opts.LaborHourlyRate),
		ShiftCount:   len(shifts),
		HourlyRate:   s.opts.LaborHourlyRate,
	}, nil
}
