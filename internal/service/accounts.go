package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/session"
	"github.com/courspresso/courspresso-web/internal/store"
	"github.com/courspresso/courspresso-web/internal/utils"
)

type AccountsAPI interface {
	Signin(ctx context.Context, loginID, password string) (*models.SigninResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) error
	RequestOTP(ctx context.Context, email string, purpose models.OTPPurpose) error
	VerifyOTP(ctx context.Context, email, otp string, purpose models.OTPPurpose) (*backend.OTPResult, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
	ProfileStatus(ctx context.Context) (bool, error)
}

var ErrMissingResetToken = errors.New("backend issued no reset token")

// Accounts drives sign-in, sign-up and the OTP flows.
type Accounts struct {
	api     AccountsAPI
	storage store.Storage
	log     *zap.Logger
}

func NewAccounts(api AccountsAPI, s store.Storage, log *zap.Logger) *Accounts {
	return &Accounts{api: api, storage: s, log: log}
}

type SignInForm struct {
	LoginID  string `json:"loginId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignIn authenticates and returns where the browser should go next.
func (a *Accounts) SignIn(ctx context.Context, sess *session.AuthSession, form SignInForm) (string, error) {
	if err := utils.ValidateStruct(form); err != nil {
		return "", err
	}
	resp, err := a.api.Signin(ctx, strings.TrimSpace(form.LoginID), form.Password)
	if err != nil {
		return "", err
	}

	email, rawRole := resp.Email, resp.Role
	if claims, err := session.Decode(resp.Token); err == nil {
		if claims.Subject != "" {
			email = claims.Subject
		}
		if claims.Role != "" {
			rawRole = claims.Role
		}
	}
	if email == "" {
		email = resp.LoginID
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return "", fmt.Errorf("signin role %q: %w", rawRole, err)
	}
	if err := sess.Login(ctx, models.Identity{Email: email}, role, resp.Token, resp.UserID); err != nil {
		return "", err
	}

	if role == models.RoleAdmin {
		return "/admin", nil
	}
	done, err := a.api.ProfileStatus(ctx)
	if err != nil {
		a.log.Warn("profile status check failed", zap.String("email", email), zap.Error(err))
		return "/register", nil
	}
	if done {
		return "/user-dashboard", nil
	}
	return "/register", nil
}

// SignOut drops the token and every hand-off key for this browser.
func (a *Accounts) SignOut(ctx context.Context, sess *session.AuthSession, browserID string) error {
	if err := sess.Logout(ctx); err != nil {
		return err
	}
	return a.storage.RemoveItems(ctx, browserID, handoffKeys...)
}

type SignUpForm struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=40"`
	Password string `json:"password" validate:"required,min=6"`
}

func (a *Accounts) SignUp(ctx context.Context, browserID string, form SignUpForm) error {
	if err := utils.ValidateStruct(form); err != nil {
		return err
	}
	req := models.SignupRequest{
		Email:        strings.TrimSpace(form.Email),
		Username:     strings.TrimSpace(form.Username),
		Password:     form.Password,
		Role:         "user",
		AuthProvider: "local",
	}
	if err := a.api.Signup(ctx, req); err != nil {
		return err
	}
	return a.storage.SetItems(ctx, browserID, map[string]string{
		store.KeyPendingEmail: req.Email,
		store.KeyOTPPurpose:   string(models.OTPVerification),
	})
}

func (a *Accounts) RequestPasswordReset(ctx context.Context, browserID, email string) error {
	email = strings.TrimSpace(email)
	if err := utils.ValidateStruct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return err
	}
	if err := a.api.RequestOTP(ctx, email, models.OTPPasswordReset); err != nil {
		return err
	}
	return a.storage.SetItems(ctx, browserID, map[string]string{
		store.KeyPendingEmail: email,
		store.KeyOTPPurpose:   string(models.OTPPasswordReset),
	})
}

// PendingOTP reports the email and purpose awaiting verification.
func (a *Accounts) PendingOTP(ctx context.Context, browserID string) (string, models.OTPPurpose, bool, error) {
	items, err := a.storage.GetItems(ctx, browserID, store.KeyPendingEmail, store.KeyOTPPurpose)
	if err != nil {
		return "", "", false, err
	}
	email := items[store.KeyPendingEmail]
	if email == "" {
		return "", "", false, nil
	}
	purpose := models.OTPPurpose(items[store.KeyOTPPurpose])
	if purpose != models.OTPPasswordReset {
		purpose = models.OTPVerification
	}
	return email, purpose, true, nil
}

// VerifyOTP checks the code and returns the next page.
func (a *Accounts) VerifyOTP(ctx context.Context, browserID, otp string) (string, error) {
	email, purpose, ok, err := a.PendingOTP(ctx, browserID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: no pending verification", ErrPreconditionFailed)
	}
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return "", fmt.Errorf("%w: otp is required", utils.ErrValidation)
	}
	res, err := a.api.VerifyOTP(ctx, email, otp, purpose)
	if err != nil {
		return "", err
	}
	if purpose == models.OTPPasswordReset {
		if res.Token == "" {
			return "", ErrMissingResetToken
		}
		if err := a.storage.SetItems(ctx, browserID, map[string]string{store.KeyResetToken: res.Token}); err != nil {
			return "", err
		}
		return "/reset-password", nil
	}
	if err := a.storage.RemoveItems(ctx, browserID, store.KeyPendingEmail, store.KeyOTPPurpose); err != nil {
		return "", err
	}
	return "/login", nil
}

type ResetForm struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
	Confirm     string `json:"confirm" validate:"eqfield=NewPassword"`
}

// ResetPassword sends the new password with the reset token as bearer,
// leaving any signed-in session untouched.
func (a *Accounts) ResetPassword(ctx context.Context, browserID string, form ResetForm) error {
	if err := utils.ValidateStruct(form); err != nil {
		return err
	}
	items, err := a.storage.GetItems(ctx, browserID, store.KeyPendingEmail, store.KeyResetToken)
	if err != nil {
		return err
	}
	email, tok := items[store.KeyPendingEmail], items[store.KeyResetToken]
	if email == "" || tok == "" {
		return fmt.Errorf("%w: no verified reset request", ErrPreconditionFailed)
	}
	if err := a.api.ResetPassword(backend.WithBearer(ctx, tok), email, form.NewPassword); err != nil {
		return err
	}
	return a.storage.RemoveItems(ctx, browserID, store.KeyPendingEmail, store.KeyOTPPurpose, store.KeyResetToken)
}
