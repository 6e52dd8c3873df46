package models

// Product is the commerce backend's product record. Price arrives as a
// currency-formatted string (e.g. "Rs. 1,299.00") and must go through
// pricing.ParsePrice before any arithmetic.
type Product struct {
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	Price          string  `json:"price"`
	Img            string  `json:"img"`
	Category       string  `json:"category"`
	Description    string  `json:"description,omitempty"`
	InStockValue   int     `json:"inStockValue"`
	SoldStockValue int     `json:"soldStockValue"`
	Visibility     string  `json:"visibility,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
}

// Listable reports whether the product carries every field the storefront
// needs to render it and is switched on by the seller.
func (p Product) Listable() bool {
	if p.Name == "" || p.Price == "" || p.Img == "" || p.Category == "" || p.ProductID == "" {
		return false
	}
	return p.Visibility == "on" || p.Visibility == "true"
}

// ProductResponse is the envelope for single-product lookups.
type ProductResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Product Product `json:"product"`
}

// ProductsResponse is the envelope for the full catalog listing.
type ProductsResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Products []Product `json:"products"`
}

// NewProduct is the multipart form payload for the seller add-product call.
type NewProduct struct {
	Name           string `json:"name" form:"name" binding:"required"`
	Price          string `json:"price" form:"price" binding:"required"`
	Category       string `json:"category" form:"category" binding:"required"`
	Description    string `json:"description" form:"description"`
	Rating         string `json:"rating" form:"rating"`
	InStockValue   string `json:"inStockValue" form:"inStockValue"`
	SoldStockValue string `json:"soldStockValue" form:"soldStockValue"`
	Visibility     string `json:"visibility" form:"visibility"`
}

// StockUpdate is the payload for the instock-update call.
type StockUpdate struct {
	ProductID      string  `json:"productId" binding:"required"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	InStockValue   int     `json:"inStockValue"`
	SoldStockValue int     `json:"soldStockValue"`
}
