package gateway

import "encoding/json"

// UserRef links a created record to its owner.
type UserRef struct {
	ID int64 `json:"id"`
}

// IncomeRecord is the wire shape of an income entry.
type IncomeRecord struct {
	ID        int64       `json:"id,omitempty"`
	Source    string      `json:"source"`
	Amount    json.Number `json:"amount"`
	Frequency string      `json:"frequency"`
	Date      string      `json:"date"`
	User      *UserRef    `json:"user,omitempty"`
}

// ExpenseRecord is the wire shape of an expense entry.
type ExpenseRecord struct {
	ID          int64       `json:"id,omitempty"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	User        *UserRef    `json:"user,omitempty"`
}

// GoalRecord is the wire shape of a savings goal. The service uses flattened
// lowercase keys that differ from the domain field names.
type GoalRecord struct {
	ID            int64       `json:"id,omitempty"`
	GoalName      string      `json:"goalname"`
	TargetAmount  json.Number `json:"targetamount"`
	CurrentAmount json.Number `json:"currentamount"`
	DeadlineDate  string      `json:"deadlinedate"`
	User          *UserRef    `json:"user,omitempty"`
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}
