package events

// EventData is implemented by the typed payloads below
type EventData interface {
	EventType() EventType
	ToMap() map[string]interface{}
}

// TransferCompletedData is emitted once per successful transfer or wire
type TransferCompletedData struct {
	Reference     string `json:"reference"`
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Wire          bool   `json:"wire"`
}

func (d *TransferCompletedData) EventType() EventType { return TransferCompleted }

func (d *TransferCompletedData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"reference":       d.Reference,
		"from_account_id": d.FromAccountID,
		"to_account_id":   d.ToAccountID,
		"amount":          d.Amount,
		"currency":        d.Currency,
		"wire":            d.Wire,
	}
}

// WireReceivedData is emitted to the recipient of an inter-user wire
type WireReceivedData struct {
	Reference string `json:"reference"`
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

func (d *WireReceivedData) EventType() EventType { return WireReceived }

func (d *WireReceivedData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"reference":  d.Reference,
		"account_id": d.AccountID,
		"amount":     d.Amount,
		"currency":   d.Currency,
	}
}

// InvestmentExecutedData is emitted after a buy or sell commits
type InvestmentExecutedData struct {
	Symbol    string `json:"symbol"`
	Direction string `json:"direction"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
	Closed    bool   `json:"closed"`
}

func (d *InvestmentExecutedData) EventType() EventType { return InvestmentExecuted }

func (d *InvestmentExecutedData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"symbol":     d.Symbol,
		"direction":  d.Direction,
		"quantity":   d.Quantity,
		"unit_price": d.UnitPrice,
		"total":      d.Total,
		"closed":     d.Closed,
	}
}

// TransactionPostedData is emitted for manual entries and cash movements
type TransactionPostedData struct {
	TransactionID int64  `json:"transaction_id"`
	AccountID     int64  `json:"account_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
}

func (d *TransactionPostedData) EventType() EventType { return TransactionPosted }

func (d *TransactionPostedData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"transaction_id": d.TransactionID,
		"account_id":     d.AccountID,
		"type":           d.Type,
		"amount":         d.Amount,
	}
}
