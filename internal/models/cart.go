package models

// LineItem 购物车行：商品快照 + 数量 + 缓存的小计
// 不变式：TotalPrice == Price × Quantity（四舍五入到 2 位），每次变更后重算
type LineItem struct {
	Product
	Quantity   int   `json:"quantity"`
	TotalPrice Money `json:"total_price"`
}

// NewLineItem 创建购物车行并计算小计
func NewLineItem(product Product, quantity int) LineItem {
	return LineItem{
		Product:    product,
		Quantity:   quantity,
		TotalPrice: product.Price.MulQuantity(quantity),
	}
}

// Recalculate 重算小计（数量或单价变更后调用）
func (l *LineItem) Recalculate() {
	l.TotalPrice = l.Price.MulQuantity(l.Quantity)
}

// RemoteCartLine 远端购物车记录中的一行（仅 ID + 数量）
type RemoteCartLine struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

// RemoteCart 服务端持有的购物车记录，一个用户可能有多条
type RemoteCart struct {
	ID       uint             `json:"id"`
	UserID   uint             `json:"userId"`
	Date     string           `json:"date"`
	Products []RemoteCartLine `json:"products"`
}
