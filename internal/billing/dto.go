package billing

import "time"

// Course types as the billing service reports them.
const (
	CourseTypeFree = "free"
	CourseTypeBuy  = "buy"
	CourseTypeRent = "rent"
)

// Transaction types.
const (
	TransactionPayment = "payment"
	TransactionDeposit = "deposit"
)

// RentPeriod is the access window granted by a "rent" purchase, measured
// from the payment transaction's creation time.
const RentPeriod = 7 * 24 * time.Hour

// CourseInfo is the billing-side course record. Price is zero for free
// courses.
type CourseInfo struct {
	Code  string  `json:"code"`
	Type  string  `json:"type"`
	Price float64 `json:"price"`
	Title string  `json:"title,omitempty"`
}

// UserAccount is the billing-side identity record. Password is only ever
// sent, never returned.
type UserAccount struct {
	Username     string   `json:"username"`
	Password     string   `json:"password,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	Balance      float64  `json:"balance"`
	Token        string   `json:"token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type Transaction struct {
	ID         int       `json:"id"`
	Type       string    `json:"type"`
	Amount     float64   `json:"amount"`
	CourseCode string    `json:"course_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type PurchaseResult struct {
	Success    bool       `json:"success"`
	CourseType string     `json:"course_type"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Ack is the billing service's acknowledgement for create/edit operations.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TransactionFilter narrows the transaction history query. Zero values are
// omitted from the request.
type TransactionFilter struct {
	Type        string
	CourseCode  string
	SkipExpired bool
}

// apiFailure is the error body shape for non-2xx responses:
// { code, message, errors?: { field: [messages] } }.
type apiFailure struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
