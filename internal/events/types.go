// Package events carries in-process notifications about committed ledger mutations.
package events

import "time"

// EventType identifies what happened
type EventType string

const (
	AccountCreated     EventType = "ACCOUNT_CREATED"
	AccountUpdated     EventType = "ACCOUNT_UPDATED"
	AccountClosed      EventType = "ACCOUNT_CLOSED"
	TransactionPosted  EventType = "TRANSACTION_POSTED"
	TransactionDeleted EventType = "TRANSACTION_DELETED"
	TransferCompleted  EventType = "TRANSFER_COMPLETED"
	WireReceived       EventType = "WIRE_RECEIVED"
	InvestmentExecuted EventType = "INVESTMENT_EXECUTED"
	AssetTracked       EventType = "ASSET_TRACKED"
	AssetUntracked     EventType = "ASSET_UNTRACKED"
	LoanOriginated     EventType = "LOAN_ORIGINATED"
	DepositOpened      EventType = "DEPOSIT_OPENED"
	DepositClosed      EventType = "DEPOSIT_CLOSED"
	BackupCompleted    EventType = "BACKUP_COMPLETED"
	ErrorOccurred      EventType = "ERROR_OCCURRED"

	SystemStatusChanged EventType = "SYSTEM_STATUS_CHANGED"
)

// AllEventTypes lists every type a stream subscriber may receive
var AllEventTypes = []EventType{
	AccountCreated, AccountUpdated, AccountClosed,
	TransactionPosted, TransactionDeleted,
	TransferCompleted, WireReceived,
	InvestmentExecuted, AssetTracked, AssetUntracked,
	LoanOriginated,
	DepositOpened, DepositClosed,
	BackupCompleted, ErrorOccurred,
	SystemStatusChanged,
}

// Event is a single notification. UserID is 0 for system events.
type Event struct {
	Type      EventType              `json:"type" msgpack:"type"`
	UserID    int64                  `json:"user_id" msgpack:"user_id"`
	Module    string                 `json:"module" msgpack:"module"`
	Timestamp time.Time              `json:"timestamp" msgpack:"timestamp"`
	Data      map[string]interface{} `json:"data" msgpack:"data"`
}
