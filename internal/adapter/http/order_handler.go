package http

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/orderdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/orderdesk/internal/app/order"
	"github.com/YelzhanWeb/orderdesk/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// CreateOrderRequest carries item prices and the delivery fee as the storefront
// priced them. The menu lives outside this service, so they are only range checked
// here; discounts and totals are recomputed server-side from these inputs. A caller
// can therefore understate a price, and the payment amount follows it.
type CreateOrderRequest struct {
	BranchID        string             `json:"branch_id"`
	CustomerID      *string            `json:"customer_id,omitempty"`
	CustomerName    string             `json:"customer_name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	OrderType       string             `json:"order_type"`
	TableNumber     *int               `json:"table_number,omitempty"`
	DeliveryAddress *string            `json:"delivery_address,omitempty"`
	CouponCode      string             `json:"coupon_code,omitempty"`
	DeliveryFee     decimal.Decimal    `json:"delivery_fee"`
	Items           []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	MenuItemID string          `json:"menu_item_id"`
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

type CreateOrderResponse struct {
	OrderNumber    string          `json:"order_number"`
	PaymentStatus  string          `json:"payment_status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ClientSecret   string          `json:"client_secret"`
}

// Разрешены: буквы (любого алфавита), пробелы, дефисы, апострофы, точки
var customerNameRegex = regexp.MustCompile(`^[\p{L}\s\-'.]+$`)

var (
	minItemPrice = decimal.RequireFromString("0.01")
	maxItemPrice = decimal.RequireFromString("999.99")
)

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	var req CreateOrderRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if validationErrors := validateCreateOrderRequest(req); len(validationErrors) > 0 {
		h.logger.Debug("validation_failed", "Order validation failed", requestID, map[string]interface{}{
			"errors": validationErrors,
		})
		respondValidation(w, validationErrors)
		return
	}

	cmd := interfaces.PlaceOrderCommand{
		BranchID:        req.BranchID,
		CustomerID:      req.CustomerID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Email:           req.Email,
		Phone:           req.Phone,
		OrderType:       req.OrderType,
		TableNumber:     req.TableNumber,
		DeliveryAddress: req.DeliveryAddress,
		CouponCode:      req.CouponCode,
		DeliveryFee:     req.DeliveryFee,
		Items:           convertItemsToCommand(req.Items),
	}

	result, err := h.service.PlaceOrder(r.Context(), cmd)
	if err != nil {
		h.respondPlaceOrderError(w, requestID, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponse{
		OrderNumber:    result.Order.Number,
		PaymentStatus:  result.Order.PaymentStatus.String(),
		Subtotal:       result.Order.Subtotal,
		DiscountAmount: result.Order.DiscountAmount,
		DeliveryFee:    result.Order.DeliveryFee,
		TotalAmount:    result.Order.TotalAmount,
		ClientSecret:   result.ClientSecret,
	})
}

func (h *OrderHandler) respondPlaceOrderError(w http.ResponseWriter, requestID string, err error) {
	var couponErr *order.CouponError
	switch {
	case errors.As(err, &couponErr):
		respondError(w, http.StatusConflict, string(couponErr.Reason), "Coupon cannot be applied")
	case errors.Is(err, order.ErrCustomerBlocked):
		respondError(w, http.StatusForbidden, "CUSTOMER_BLOCKED", "Ordering is not available for this customer")
	case errors.Is(err, order.ErrBranchClosed):
		respondError(w, http.StatusConflict, "BRANCH_CLOSED", "Branch is closed")
	default:
		status, code := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("order_creation_failed", "Failed to create order", requestID, nil, err)
			respondError(w, status, "ORDER_FAILED", "Order could not be placed")
			return
		}
		respondError(w, status, code, err.Error())
	}
}

func validateCreateOrderRequest(req CreateOrderRequest) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(req.BranchID) == "" {
		errs = append(errs, ValidationError{Field: "branch_id", Message: "branch is required"})
	}

	// 1. Валидация customer_name
	customerName := strings.TrimSpace(req.CustomerName)
	if len(customerName) < 1 {
		errs = append(errs, ValidationError{Field: "customer_name", Message: "customer name is required"})
	} else if len(customerName) > 100 {
		errs = append(errs, ValidationError{Field: "customer_name", Message: "customer name must not exceed 100 characters"})
	} else if !customerNameRegex.MatchString(customerName) {
		errs = append(errs, ValidationError{
			Field:   "customer_name",
			Message: "customer name must contain only letters, spaces, hyphens, dots and apostrophes",
		})
	}

	// 2. Валидация order_type и условных полей
	switch req.OrderType {
	case "dine_in":
		if req.TableNumber == nil {
			errs = append(errs, ValidationError{Field: "table_number", Message: "table number is required for dine-in orders"})
		} else if *req.TableNumber < 1 || *req.TableNumber > 100 {
			errs = append(errs, ValidationError{Field: "table_number", Message: "table number must be between 1 and 100"})
		}
		if req.DeliveryAddress != nil {
			errs = append(errs, ValidationError{Field: "delivery_address", Message: "delivery address must not be present for dine-in orders"})
		}
	case "delivery":
		if req.DeliveryAddress == nil {
			errs = append(errs, ValidationError{Field: "delivery_address", Message: "delivery address is required for delivery orders"})
		} else if len(strings.TrimSpace(*req.DeliveryAddress)) < 10 {
			errs = append(errs, ValidationError{Field: "delivery_address", Message: "delivery address must be at least 10 characters"})
		}
		if req.TableNumber != nil {
			errs = append(errs, ValidationError{Field: "table_number", Message: "table number must not be present for delivery orders"})
		}
	case "pickup":
		if req.TableNumber != nil {
			errs = append(errs, ValidationError{Field: "table_number", Message: "table number must not be present for pickup orders"})
		}
		if req.DeliveryAddress != nil {
			errs = append(errs, ValidationError{Field: "delivery_address", Message: "delivery address must not be present for pickup orders"})
		}
	default:
		errs = append(errs, ValidationError{Field: "order_type", Message: "order type must be one of: pickup, delivery, dine_in"})
	}

	if req.DeliveryFee.IsNegative() {
		errs = append(errs, ValidationError{Field: "delivery_fee", Message: "delivery fee must not be negative"})
	}

	// 3. Валидация items
	if len(req.Items) < 1 {
		errs = append(errs, ValidationError{Field: "items", Message: "order must contain at least 1 item"})
	} else if len(req.Items) > 50 {
		errs = append(errs, ValidationError{Field: "items", Message: "order must not contain more than 50 items"})
	}

	for i, item := range req.Items {
		itemPrefix := fmt.Sprintf("items[%d]", i)

		itemName := strings.TrimSpace(item.Name)
		if len(itemName) < 1 {
			errs = append(errs, ValidationError{Field: itemPrefix + ".name", Message: "item name is required"})
		} else if len(itemName) > 100 {
			errs = append(errs, ValidationError{Field: itemPrefix + ".name", Message: "item name must not exceed 100 characters"})
		}

		if item.Quantity < 1 || item.Quantity > 20 {
			errs = append(errs, ValidationError{Field: itemPrefix + ".quantity", Message: "item quantity must be between 1 and 20"})
		}

		if item.Price.LessThan(minItemPrice) || item.Price.GreaterThan(maxItemPrice) {
			errs = append(errs, ValidationError{Field: itemPrefix + ".price", Message: "item price must be between 0.01 and 999.99"})
		}
	}

	return errs
}

func convertItemsToCommand(items []OrderItemRequest) []interfaces.PlaceOrderItemCommand {
	result := make([]interfaces.PlaceOrderItemCommand, len(items))
	for i, item := range items {
		result[i] = interfaces.PlaceOrderItemCommand{
			MenuItemID: item.MenuItemID,
			CategoryID: item.CategoryID,
			Name:       strings.TrimSpace(item.Name),
			Quantity:   item.Quantity,
			Price:      item.Price,
		}
	}
	return result
}
