package domain

// Product is a catalog entry as handed to the cart. The cart assigns quantity.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

// CartItem is one line of the cart. Field names match the persisted blob format.
type CartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func NewCartItem(p Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	}
}

// Subtotal is price times quantity, for display only.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Totals returns the sum of quantities and the sum of subtotals.
func Totals(items []CartItem) (units int, total float64) {
	for _, item := range items {
		units += item.Quantity
		total += item.Subtotal()
	}
	return units, total
}

// IndexOf returns the position of the item with the given id, or -1.
func IndexOf(items []CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with items.
func Clone(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}
