package web

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/courspresso/courspresso-web/internal/auth"
	"github.com/courspresso/courspresso-web/internal/backend"
	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/service"
	"github.com/courspresso/courspresso-web/internal/utils"
)

type AuthData struct {
	Email    string
	Username string
	Purpose  models.OTPPurpose
}

func (h *Handler) renderAuth(w http.ResponseWriter, r *http.Request, status int, name, title string, data *AuthData, msg string) {
	p := h.page(w, r, title, data)
	p.Error = msg
	h.render(w, r, status, name, p)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, "login", "Log in", &AuthData{}, "")
}

func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := service.SignInForm{LoginID: r.PostForm.Get("loginId"), Password: r.PostForm.Get("password")}
	dest, err := h.Accounts.SignIn(r.Context(), auth.GetSessionFromCtx(r.Context()), form)
	if err != nil {
		msg := message(err, "Login failed. Please try again.")
		if errors.Is(err, backend.ErrUnauthorized) {
			msg = "Invalid email/username or password."
		}
		h.Log.Info("login failed", zap.String("login", form.LoginID), zap.Error(err))
		h.renderAuth(w, r, statusFor(err), "login", "Log in", &AuthData{Email: form.LoginID}, msg)
		return
	}
	utils.Redirect(w, r, dest)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Accounts.SignOut(ctx, auth.GetSessionFromCtx(ctx), auth.GetBrowserIDFromCtx(ctx)); err != nil {
		h.Log.Error("sign out", zap.Error(err))
	}
	utils.Redirect(w, r, "/login")
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, "signup", "Sign up", &AuthData{}, "")
}

func (h *Handler) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := service.SignUpForm{
		Email:    r.PostForm.Get("email"),
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := h.Accounts.SignUp(r.Context(), auth.GetBrowserIDFromCtx(r.Context()), form); err != nil {
		data := &AuthData{Email: form.Email, Username: form.Username}
		h.renderAuth(w, r, statusFor(err), "signup", "Sign up", data, message(err, "Sign up failed. Please try again."))
		return
	}
	h.flash(r, "Check your email for a verification code.")
	utils.Redirect(w, r, "/verify-otp")
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	email, purpose, _, err := h.Accounts.PendingOTP(r.Context(), auth.GetBrowserIDFromCtx(r.Context()))
	if err != nil {
		h.Log.Error("read pending otp", zap.Error(err))
	}
	h.renderAuth(w, r, http.StatusOK, "verify_otp", "Verify", &AuthData{Email: email, Purpose: purpose}, "")
}

func (h *Handler) VerifyOTPSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	browserID := auth.GetBrowserIDFromCtx(ctx)
	dest, err := h.Accounts.VerifyOTP(ctx, browserID, r.PostForm.Get("otp"))
	if err != nil {
		email, purpose, _, _ := h.Accounts.PendingOTP(ctx, browserID)
		msg := message(err, "Verification failed. Please try again.")
		if errors.Is(err, backend.ErrBadRequest) || errors.Is(err, backend.ErrUnauthorized) {
			msg = backend.Message(err, "Invalid or expired code.")
		}
		h.renderAuth(w, r, statusFor(err), "verify_otp", "Verify", &AuthData{Email: email, Purpose: purpose}, msg)
		return
	}
	if dest == "/login" {
		h.flash(r, "Email verified. You can log in now.")
	}
	utils.Redirect(w, r, dest)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, "forgot_password", "Forgot password", &AuthData{}, "")
}

func (h *Handler) ForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	if err := h.Accounts.RequestPasswordReset(r.Context(), auth.GetBrowserIDFromCtx(r.Context()), email); err != nil {
		h.renderAuth(w, r, statusFor(err), "forgot_password", "Forgot password", &AuthData{Email: email},
			message(err, "Could not send a reset code."))
		return
	}
	h.flash(r, "We sent a reset code to your email.")
	utils.Redirect(w, r, "/verify-otp")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, http.StatusOK, "reset_password", "Reset password", &AuthData{}, "")
}

func (h *Handler) ResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := service.ResetForm{NewPassword: r.PostForm.Get("newPassword"), Confirm: r.PostForm.Get("confirm")}
	err := h.Accounts.ResetPassword(r.Context(), auth.GetBrowserIDFromCtx(r.Context()), form)
	switch {
	case err == nil:
		h.flash(r, "Password updated. Please log in.")
		utils.Redirect(w, r, "/login")
	case errors.Is(err, service.ErrPreconditionFailed):
		h.flash(r, "Request a new reset code first.")
		utils.Redirect(w, r, "/forgot-password")
	default:
		h.renderAuth(w, r, statusFor(err), "reset_password", "Reset password", &AuthData{}, message(err, "Could not reset the password."))
	}
}
