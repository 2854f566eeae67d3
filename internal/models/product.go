package models

// ProductRating 商品评分信息
type ProductRating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product 远端商品目录中的商品，抓取后不再变更，以 ID 为唯一标识
type Product struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Price       Money         `json:"price"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Image       string        `json:"image"`
	Rating      ProductRating `json:"rating"`
}
