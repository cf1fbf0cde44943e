package models

import "time"

type OtpCode struct {
	Email     string    `dynamodbav:"email"`
	Code      string    `dynamodbav:"otp"`
	ExpiresAt time.Time `dynamodbav:"expires_at,unixtime"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

func (c *OtpCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

type EmailRequest struct {
	Email string `json:"email" validate:"required|email"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required|email"`
	Code  string `json:"code" validate:"required|regex:^[0-9]{6}$"`
}
