package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

// RoutingKeyExpenseCreated is the routing key of ExpenseCreatedMessage.
const RoutingKeyExpenseCreated = "expense.created"

// ExpenseCreatedMessage announces a newly stored expense. It carries the
// full row so consumers never need database access.
type ExpenseCreatedMessage struct {
	MessageID   string    `json:"message_id"`
	ExpenseID   int64     `json:"expense_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Category    string    `json:"category"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseCreatedMessage builds the event for e with a fresh message id.
func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		MessageID:   uuid.NewString(),
		ExpenseID:   e.ID,
		UserID:      e.UserID,
		Username:    e.Username,
		Category:    e.CategoryName,
		Amount:      e.Amount.String(),
		Description: e.Description,
		Date:        e.Date.String(),
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON decodes and checks a message body.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ExpenseID <= 0 {
		return nil, fmt.Errorf("message %q: missing expense id", msg.MessageID)
	}
	if _, err := core.ParseDate(msg.Date); err != nil {
		return nil, fmt.Errorf("message %q: %w", msg.MessageID, err)
	}
	return &msg, nil
}
