package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marketbase/platform/internal/order/models"
	"github.com/marketbase/platform/internal/order/repo"
	"github.com/marketbase/platform/internal/order/transport"
	"github.com/marketbase/platform/pkg/logging"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
)

// OrderStore is the persistence contract. The gorm repo implements it; create
// and delete are transactional, order plus items as one unit.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	OrderByID(ctx context.Context, id uint) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID uint) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	DeleteOrder(ctx context.Context, id uint) error
}

type OrderService struct {
	Store OrderStore
}

// CreateOrder derives the total from the items with decimal arithmetic; a
// caller-supplied total is never trusted. New orders start as PENDING.
func (svc *OrderService) CreateOrder(ctx context.Context, userID uint, reqItems []transport.CreateOrderItem) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create_order", "user_id", userID)

	if userID == 0 {
		return nil, fmt.Errorf("%w: userId required", ErrValidation)
	}
	if len(reqItems) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(reqItems))

	for i := range reqItems {
		if reqItems[i].ProductID == 0 {
			return nil, fmt.Errorf("%w: productId required", ErrValidation)
		}
		if reqItems[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if reqItems[i].Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}

		line := reqItems[i].Price.Mul(decimal.NewFromInt(int64(reqItems[i].Quantity)))
		total = total.Add(line)

		items = append(items, models.OrderItem{
			ProductID: reqItems[i].ProductID,
			Quantity:  reqItems[i].Quantity,
			UnitPrice: reqItems[i].Price,
		})
	}

	order := &models.Order{
		UserID: userID,
		Status: models.StatusPending,
		Total:  total,
		Items:  items,
	}

	if err := svc.Store.CreateOrder(ctx, order); err != nil {
		l.Error("create_order_error", "error", err)
		return nil, err
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.Total.String())
	return order, nil
}

func (svc *OrderService) OrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return svc.Store.OrdersByUser(ctx, userID)
}

func (svc *OrderService) OrderByID(ctx context.Context, id uint) (*models.Order, error) {
	order, err := svc.Store.OrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

func (svc *OrderService) AllOrders(ctx context.Context) ([]models.Order, error) {
	return svc.Store.AllOrders(ctx)
}

// UpdateStatus accepts any member of the status enumeration as the new state;
// it does not enforce a transition graph. Unknown statuses are rejected.
func (svc *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	if err := svc.Store.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}

	return svc.OrderByID(ctx, id)
}

func (svc *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	if err := svc.Store.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}
