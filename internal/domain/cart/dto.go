// internal/domain/cart/dto.go
package cart

import "github.com/shopspring/decimal"

// AddItemRequest represents an add-to-cart call
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// ItemView is one line of the cart view
type ItemView struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// View is the recomputed cart representation returned by every cart operation
type View struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	Items       []ItemView      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalItems  int             `json:"total_items"`
}

// ToView maps a cart to its view
func ToView(c *Cart) *View {
	view := &View{
		ID:          c.ID,
		UserID:      c.UserID,
		Items:       make([]ItemView, 0, len(c.Items)),
		TotalAmount: c.Total(),
		TotalItems:  c.TotalItems(),
	}
	for i := range c.Items {
		item := &c.Items[i]
		view.Items = append(view.Items, ItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		})
	}
	return view
}
