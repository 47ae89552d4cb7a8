package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"restaurant-api/events"
	"restaurant-api/models"
	"restaurant-api/policy"
	"restaurant-api/statemachine"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type OrderService struct{ deps }

// OrderLine is one cart line. Price is the menu price captured when the item
// was added to the cart, not re-read at placement.
type OrderLine struct {
	MenuItemID uint    `json:"menu_item_id" validate:"required"`
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	Price      float64 `json:"price" validate:"gte=0"`
}

type PlaceOrderInput struct {
	Items   []OrderLine      `validate:"required,min=1,dive"`
	Type    models.OrderType `validate:"omitempty,oneof=DINE_IN TAKEAWAY"`
	TableID *uint
}

type PublicOrderInput struct {
	CustomerName  string      `validate:"required"`
	CustomerEmail string      `validate:"omitempty,email"`
	Items         []OrderLine `validate:"required,min=1,dive"`
}

type SettleInput struct {
	Method models.PaymentMethod `validate:"required,oneof=CASH CARD"`
	Amount *float64             `validate:"omitempty,gt=0"`
}

type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	Type          models.OrderType
}

// KitchenTicket is an active order plus the one action the kitchen can take.
type KitchenTicket struct {
	models.Order
	NextStatus models.OrderStatus `json:"next_status,omitempty"`
}

// OrderTotal sums price × quantity over lines, rounded to cents.
func OrderTotal(lines []OrderLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.Price * float64(l.Quantity)
	}
	return round2(total)
}

// PlaceOrder records a staff order from the POS.
func (s *OrderService) PlaceOrder(ctx context.Context, actor Actor, in PlaceOrderInput) (*models.Order, error) {
	if err := authorize(policy.OpPlaceOrder, actor); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = models.OrderDineIn
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Type == models.OrderTakeaway && in.TableID != nil {
		return nil, fmt.Errorf("%w: takeaway orders cannot reference a table", ErrValidation)
	}

	uid := actor.UserID
	order := models.Order{
		Type:    in.Type,
		TableID: in.TableID,
		UserID:  &uid,
	}
	return s.place(ctx, order, in.Items, &uid, "Order placed at POS")
}

// PlacePublicOrder records a guest order from the public menu. Guest orders
// are always takeaway, unpaid and have no operator.
func (s *OrderService) PlacePublicOrder(ctx context.Context, in PublicOrderInput) (*models.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	order := models.Order{
		Type:          models.OrderTakeaway,
		CustomerName:  in.CustomerName,
		CustomerEmail: strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
	}
	return s.place(ctx, order, in.Items, nil, "Order placed from public menu")
}

func (s *OrderService) place(ctx context.Context, order models.Order, lines []OrderLine, changedBy *uint, note string) (*models.Order, error) {
	menu, err := s.loadMenuItems(ctx, lines)
	if err != nil {
		return nil, err
	}
	deductions, err := s.deductions(ctx, lines)
	if err != nil {
		return nil, err
	}

	order.Status = models.StatusPending
	order.PaymentStatus = models.PaymentUnpaid
	order.TotalAmount = OrderTotal(lines)
	order.Items = make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: l.MenuItemID,
			Quantity:   l.Quantity,
			Price:      l.Price,
			Name:       menu[l.MenuItemID].Name,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.Type == models.OrderDineIn && order.TableID != nil {
			if err := occupyTable(tx, *order.TableID); err != nil {
				return err
			}
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: changedBy,
			Note:      note,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("record order history: %w", err)
		}
		return applyDeductions(tx, deductions, s.opts.StrictStock)
	})
	if err != nil {
		s.log.WithError(err).Warn("order placement rolled back")
		return nil, err
	}

	s.log.WithFields(log.Fields{
		"order_id": order.ID,
		"total":    order.TotalAmount,
		"lines":    len(order.Items),
	}).Info("order placed")

	payload := map[string]any{"order_id": order.ID, "status": order.Status}
	s.publish(ctx, events.TopicKitchen, events.TypeOrderCreated, payload)
	s.publish(ctx, events.TopicOrders, events.TypeOrderCreated, payload)
	s.publish(ctx, events.TopicPOS, events.TypeOrderCreated, payload)
	if len(deductions) > 0 {
		s.publish(ctx, events.TopicInventory, events.TypeInventoryChanged, map[string]any{"order_id": order.ID})
	}
	if order.TableID != nil {
		s.publish(ctx, events.TopicTables, events.TypeTableChanged, map[string]any{"table_id": *order.TableID, "status": models.TableOccupied})
	}
	return &order, nil
}

// loadMenuItems checks that every ordered item exists and is on sale.
func (s *OrderService) loadMenuItems(ctx context.Context, lines []OrderLine) (map[uint]models.MenuItem, error) {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MenuItemID)
	}
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	byID := make(map[uint]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, l := range lines {
		it, ok := byID[l.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: menu item %d", ErrNotFound, l.MenuItemID)
		}
		if !it.Available {
			return nil, fmt.Errorf("%w: menu item %q is not available", ErrValidation, it.Name)
		}
	}
	return byID, nil
}

// deductions accumulates recipe consumption per inventory item across all
// lines. Values stay unrounded until they are applied.
func (s *OrderService) deductions(ctx context.Context, lines []OrderLine) (map[uint]float64, error) {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MenuItemID)
	}
	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Preload("Ingredients").
		Where("menu_item_id IN ?", ids).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	return AccumulateDeductions(lines, recipes), nil
}

// AccumulateDeductions computes inventory consumption for an order. An
// ingredient shared by several dishes accumulates every contribution.
func AccumulateDeductions(lines []OrderLine, recipes []models.Recipe) map[uint]float64 {
	byMenuItem := make(map[uint]models.Recipe, len(recipes))
	for _, r := range recipes {
		byMenuItem[r.MenuItemID] = r
	}
	out := map[uint]float64{}
	for _, l := range lines {
		r, ok := byMenuItem[l.MenuItemID]
		if !ok {
			continue
		}
		for _, ing := range r.Ingredients {
			out[ing.InventoryItemID] += ing.Quantity * float64(l.Quantity)
		}
	}
	return out
}

func applyDeductions(tx *gorm.DB, deductions map[uint]float64, strict bool) error {
	ids := make([]uint, 0, len(deductions))
	for id := range deductions {
		ids = append(ids, id)
	}
	// fixed order keeps concurrent placements from deadlocking on postgres
	slices.Sort(ids)

	for _, id := range ids {
		n := int(math.Round(deductions[id]))
		q := tx.Model(&models.InventoryItem{}).Where("id = ?", id)
		if strict {
			q = q.Where("quantity >= ?", n)
		}
		res := q.Update("quantity", gorm.Expr("quantity - ?", n))
		if res.Error != nil {
			return fmt.Errorf("deduct inventory item %d: %w", id, res.Error)
		}
		if res.RowsAffected == 1 {
			continue
		}
		if strict {
			var count int64
			if err := tx.Model(&models.InventoryItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: inventory item %d needs %d", ErrInsufficientStock, id, n)
			}
		}
		return fmt.Errorf("%w: inventory item %d", ErrNotFound, id)
	}
	return nil
}

func occupyTable(tx *gorm.DB, tableID uint) error {
	var table models.RestaurantTable
	if err := tx.First(&table, tableID).Error; err != nil {
		return notFound(err, "table", tableID)
	}
	if table.Status == models.TableOutOfOrder {
		return fmt.Errorf("%w: table %s is out of order", ErrConflict, table.Number)
	}
	return tx.Model(&table).Update("status", models.TableOccupied).Error
}

// releaseTable frees a table once no other active order sits on it.
func releaseTable(tx *gorm.DB, tableID, orderID uint) (bool, error) {
	var active int64
	err := tx.Model(&models.Order{}).
		Where("table_id = ? AND id <> ? AND status IN ?", tableID, orderID, models.ActiveStatuses).
		Count(&active).Error
	if err != nil || active > 0 {
		return false, err
	}
	res := tx.Model(&models.RestaurantTable{}).
		Where("id = ? AND status = ?", tableID, models.TableOccupied).
		Update("status", models.TableAvailable)
	return res.RowsAffected > 0, res.Error
}

// UpdateStatus moves an order through the lifecycle. The write is a
// compare-and-set on the status read, so concurrent transitions cannot both win.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID uint, to models.OrderStatus, note string) (*models.Order, error) {
	if err := authorize(policy.OpUpdateStatus, actor); err != nil {
		return nil, err
	}
	if !statemachine.ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	var (
		order    models.Order
		from     models.OrderStatus
		released bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFound(err, "order", orderID)
		}
		from = order.Status
		if err := statemachine.CanTransition(from, to); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d changed concurrently", ErrConflict, order.ID)
		}
		order.Status = to

		uid := actor.UserID
		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  &uid,
			Note:       note,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("record order history: %w", err)
		}

		if statemachine.IsTerminal(to) && s.opts.ReleaseTableOnComplete && order.TableID != nil {
			var err error
			released, err = releaseTable(tx, *order.TableID, order.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(log.Fields{"order_id": order.ID, "from": from, "to": to}).Info("order status updated")
	payload := map[string]any{"order_id": order.ID, "from": from, "status": to}
	s.publish(ctx, events.TopicKitchen, events.TypeOrderUpdated, payload)
	s.publish(ctx, events.TopicOrders, events.TypeOrderUpdated, payload)
	s.publish(ctx, events.TopicPOS, events.TypeOrderUpdated, payload)
	if released {
		s.publish(ctx, events.TopicTables, events.TypeTableChanged, map[string]any{"table_id": *order.TableID, "status": models.TableAvailable})
	}
	return &order, nil
}

// Advance applies the kitchen's single forward step for the order.
func (s *OrderService) Advance(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	if err := authorize(policy.OpUpdateStatus, actor); err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return nil, notFound(err, "order", orderID)
	}
	next, ok := statemachine.NextStatus(order.Status)
	if !ok {
		return nil, fmt.Errorf("%w: order %d is %s", ErrInvalidTransition, order.ID, order.Status)
	}
	return s.UpdateStatus(ctx, actor, orderID, next, "")
}

// Settle records a payment and marks the order PAID.
func (s *OrderService) Settle(ctx context.Context, actor Actor, orderID uint, in SettleInput) (*models.Payment, error) {
	if err := authorize(policy.OpSettleOrder, actor); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFound(err, "order", orderID)
		}
		if err := statemachine.CanSettle(order.Status, order.PaymentStatus); err != nil {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		amount := order.TotalAmount
		if in.Amount != nil {
			amount = round2(*in.Amount)
		}
		if amount < order.TotalAmount {
			return fmt.Errorf("%w: amount %.2f does not cover total %.2f", ErrValidation, amount, order.TotalAmount)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", order.ID, models.PaymentUnpaid).
			Update("payment_status", models.PaymentPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d settled concurrently", ErrConflict, order.ID)
		}

		uid := actor.UserID
		payment = models.Payment{
			OrderID:   order.ID,
			Amount:    amount,
			Method:    in.Method,
			Status:    models.PaymentPaid,
			Reference: "PAY-" + strings.ToUpper(uuid.NewString()[:8]),
			CreatedBy: &uid,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]any{"order_id": orderID, "payment_status": models.PaymentPaid, "reference": payment.Reference}
	s.publish(ctx, events.TopicOrders, events.TypeOrderSettled, payload)
	s.publish(ctx, events.TopicPOS, events.TypeOrderSettled, payload)
	return &payment, nil
}

// Refund reverses a settled order and appends a REFUNDED payment record.
func (s *OrderService) Refund(ctx context.Context, actor Actor, orderID uint) (*models.Payment, error) {
	if err := authorize(policy.OpRefundOrder, actor); err != nil {
		return nil, err
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFound(err, "order", orderID)
		}
		if err := statemachine.CanRefund(order.PaymentStatus); err != nil {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		var paid models.Payment
		if err := tx.Where("order_id = ? AND status = ?", order.ID, models.PaymentPaid).
			Order("id desc").First(&paid).Error; err != nil {
			return notFound(err, "payment for order", order.ID)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", order.ID, models.PaymentPaid).
			Update("payment_status", models.PaymentRefunded)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d refunded concurrently", ErrConflict, order.ID)
		}

		uid := actor.UserID
		payment = models.Payment{
			OrderID:   order.ID,
			Amount:    paid.Amount,
			Method:    paid.Method,
			Status:    models.PaymentRefunded,
			Reference: paid.Reference,
			CreatedBy: &uid,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicOrders, events.TypeOrderSettled, map[string]any{"order_id": orderID, "payment_status": models.PaymentRefunded})
	return &payment, nil
}

// List returns orders newest first.
func (s *OrderService) List(ctx context.Context, actor Actor, f OrderFilter) ([]models.Order, error) {
	if err := authorize(policy.OpViewOrders, actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Preload("Items.MenuItem").Preload("User").Preload("Table")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var orders []models.Order
	if err := q.Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns one order with its lines, payments and history.
func (s *OrderService) Get(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	if err := authorize(policy.OpViewOrders, actor); err != nil {
		return nil, err
	}
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.MenuItem").
		Preload("Payments").
		Preload("StatusHistory").
		Preload("User").
		Preload("Table").
		First(&order, orderID).Error
	if err != nil {
		return nil, notFound(err, "order", orderID)
	}
	return &order, nil
}

// KitchenQueue lists active orders oldest first. It is a plain read and safe
// to call on every poll.
func (s *OrderService) KitchenQueue(ctx context.Context, actor Actor) ([]KitchenTicket, error) {
	if err := authorize(policy.OpViewKitchen, actor); err != nil {
		return nil, err
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Table").
		Where("status IN ?", models.ActiveStatuses).
		Order("created_at asc").Order("id asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	tickets := make([]KitchenTicket, len(orders))
	for i, o := range orders {
		next, _ := statemachine.NextStatus(o.Status)
		tickets[i] = KitchenTicket{Order: o, NextStatus: next}
	}
	return tickets, nil
}
