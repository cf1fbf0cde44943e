package models

// GuestUsage is the lifetime upload counter of a guest address.
type GuestUsage struct {
	Address string `dynamodbav:"address"`
	Count   int    `dynamodbav:"count"`
}

// UserUsage is the per-day upload counter of an authenticated user.
// LastUploadDate is a UTC calendar date in DateLayout.
type UserUsage struct {
	UserID         string `dynamodbav:"user_id"`
	LastUploadDate string `dynamodbav:"last_upload_date"`
	DailyCount     int    `dynamodbav:"daily_count"`
}

const DateLayout = "2006-01-02"

// Allowance is the outcome of an allowed consumption.
type Allowance struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

func NewAllowance(used, limit int) Allowance {
	return Allowance{Used: used, Limit: limit, Remaining: max(limit-used, 0)}
}
