package backend

import (
	"context"
	"net/http"

	"github.com/courspresso/courspresso-web/internal/models"
)

type signinRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

func (c *Client) Signin(ctx context.Context, loginID, password string) (*models.SigninResponse, error) {
	var out models.SigninResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signin", "/api/auth/signin", nil,
		signinRequest{LoginID: loginID, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) error {
	return c.do(ctx, http.MethodPost, "/api/auth/signup", "/api/auth/signup", nil, req, nil)
}

type otpRequest struct {
	Email   string            `json:"email"`
	OTP     string            `json:"otp,omitempty"`
	Purpose models.OTPPurpose `json:"purpose,omitempty"`
}

func (c *Client) RequestOTP(ctx context.Context, email string, purpose models.OTPPurpose) error {
	return c.do(ctx, http.MethodPost, "/api/auth/request-otp", "/api/auth/request-otp", nil,
		otpRequest{Email: email, Purpose: purpose}, nil)
}

// OTPResult carries the reset token issued for PASSWORD_RESET verifications.
type OTPResult struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string, purpose models.OTPPurpose) (*OTPResult, error) {
	var out OTPResult
	err := c.do(ctx, http.MethodPost, "/api/auth/verify-otp", "/api/auth/verify-otp", nil,
		otpRequest{Email: email, OTP: otp, Purpose: purpose}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type resetRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword must be called with a context carrying the reset token, see WithBearer.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", "/api/auth/reset-password", nil,
		resetRequest{Email: email, NewPassword: newPassword}, nil)
}
