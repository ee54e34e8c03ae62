package types

// NotifyRequest is the body of POST /notify.
type NotifyRequest struct {
	MatchID    string   `json:"matchId" validate:"required"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required,email"`
	Subject    string   `json:"subject"`
	Message    string   `json:"message"`
}

// NotifyResponse mirrors the {success, sent} contract of the email path.
type NotifyResponse struct {
	Success bool `json:"success"`
	Sent    int  `json:"sent"`
}

// PushRequest is the body of POST /push.
type PushRequest struct {
	MatchID string `json:"matchId" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type PushResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Topic   string `json:"topic"`
}

// CartConfirmationRequest is the body of POST /send-cart-confirmation.
type CartConfirmationRequest struct {
	UserEmail    string  `json:"userEmail" validate:"required,email"`
	ProductName  string  `json:"productName" validate:"required"`
	ProductPrice float64 `json:"productPrice"`
	Quantity     int     `json:"quantity"`
}
