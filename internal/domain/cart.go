package domain

import "time"

type Cart struct {
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Quantity returns the quantity held for productID, zero when there is no line.
func (c *Cart) Quantity(productID string) int {
	if c == nil {
		return 0
	}
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// CartView is a cart resolved against the current catalog. Prices here follow the
// product, unlike OrderItem which is frozen at checkout.
type CartView struct {
	UserID    string     `json:"user_id"`
	Items     []CartLine `json:"items"`
	ItemCount int        `json:"item_count"`
	Subtotal  Amount     `json:"subtotal"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Image     string `json:"image,omitempty"`
	UnitPrice Amount `json:"unit_price"`
	LineTotal Amount `json:"line_total"`
	// Available is false when the product was removed or deactivated after it was added.
	Available bool `json:"available"`
}

// ResolveCart joins cart lines with their products. Missing products stay in the view
// marked unavailable and do not count toward the subtotal.
func ResolveCart(cart *Cart, products map[string]*Product) *CartView {
	view := &CartView{
		UserID: cart.UserID,
		Items:  make([]CartLine, 0, len(cart.Items)),
	}
	view.UpdatedAt = cart.UpdatedAt

	for _, item := range cart.Items {
		line := CartLine{ProductID: item.ProductID, Quantity: item.Quantity}
		if p, ok := products[item.ProductID]; ok && p.Active {
			line.Name = p.Name
			line.Slug = p.Slug
			line.Image = p.PrimaryImage()
			line.UnitPrice = p.Price
			line.LineTotal = p.Price.Times(item.Quantity)
			line.Available = true
			view.Subtotal = view.Subtotal.Plus(line.LineTotal)
		}
		view.ItemCount += item.Quantity
		view.Items = append(view.Items, line)
	}
	return view
}
