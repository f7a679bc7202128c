package wishlist

import (
	"time"

	"github.com/google/uuid"
)

// ItemSummary is the catalog projection shown on a wishlist row.
type ItemSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Author         *string   `json:"author,omitempty"`
	ImgURL         *string   `json:"img_url,omitempty"`
	PriceCents     int       `json:"price_cents"`
	SalePriceCents *int      `json:"sale_price_cents,omitempty"`
	OnSale         bool      `json:"on_sale"`
	Stock          int       `json:"stock"`
	Active         bool      `json:"active"`
}

// WishlistItemDTO wraps the item summary included in a wishlist row.
type WishlistItemDTO struct {
	Item      ItemSummary `json:"item"`
	CreatedAt time.Time   `json:"created_at"`
}

// Pagination carries cursor metadata for wishlist pages.
type Pagination struct {
	Total   int    `json:"total"`
	Current string `json:"current,omitempty"`
	First   string `json:"first,omitempty"`
	Last    string `json:"last,omitempty"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// WishlistItemsPageDTO returns a cursor-paginated wishlist view, newest first.
type WishlistItemsPageDTO struct {
	Items      []WishlistItemDTO `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// WishlistIDsDTO is a lightweight projection containing only item IDs plus pagination metadata.
type WishlistIDsDTO struct {
	ItemIDs    []uuid.UUID `json:"item_ids"`
	Pagination Pagination  `json:"pagination"`
}
