package model

// 明細小計 = (単価 + extrasの合計) × 数量
func LineSubtotal(unitPrice int64, extras []OrderItemExtra, qty int64) int64 {
	return (unitPrice + ExtrasTotal(extras)) * qty
}

func ExtrasTotal(extras []OrderItemExtra) int64 {
	var sum int64
	for _, e := range extras {
		sum += e.Price
	}
	return sum
}

// NewOrderItem はスナップショットから明細を組み立てる。
func NewOrderItem(s ProductSnapshot, qty int64, extras []OrderItemExtra) OrderItem {
	if extras == nil {
		extras = []OrderItemExtra{}
	}
	return OrderItem{
		ProductID:           s.ID,
		ProductNameSnapshot: s.Name,
		UnitPriceSnapshot:   s.Price,
		Quantity:            qty,
		Extras:              extras,
		Subtotal:            LineSubtotal(s.Price, extras, qty),
	}
}

func OrderTotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Subtotal
	}
	return total
}
