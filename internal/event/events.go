package event

const (
	TopicProductCreated = "inventory.product.created"
	TopicSaleCompleted  = "inventory.sale.completed"
	TopicAlertCreated   = "inventory.alert.created"
)

type ProductCreatedEvent struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Sku         string  `json:"sku"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	StockMinimo int     `json:"stock_minimo"`
}

type SaleCompletedEvent struct {
	SaleID    string              `json:"sale_id"`
	Total     float64             `json:"total"`
	CreatedBy string              `json:"created_by"`
	Items     []SaleCompletedItem `json:"items"`
}

type SaleCompletedItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type AlertCreatedEvent struct {
	AlertID     string `json:"alert_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	StockMinimo int    `json:"stock_minimo"`
}
