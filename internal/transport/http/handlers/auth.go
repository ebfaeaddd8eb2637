package http_handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/chatcpe-service/internal/application/auth"
	"github.com/baechuer/chatcpe-service/internal/domain"
	"github.com/baechuer/chatcpe-service/internal/logger"
	"github.com/baechuer/chatcpe-service/internal/transport/http/dto"
	"github.com/baechuer/chatcpe-service/internal/transport/http/middleware"
	"github.com/baechuer/chatcpe-service/internal/transport/http/response"
	"github.com/baechuer/chatcpe-service/internal/transport/http/validate"
)

// AuthService is the slice of auth.Service the handlers call.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (domain.User, error)
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	VerifyEmail(ctx context.Context, rawToken string) (auth.VerifyOutcome, error)
	ResendVerification(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, userID int64, name string) (domain.User, error)
	SetUserRole(ctx context.Context, actor domain.User, targetUserID int64, newRole string) (domain.User, error)
}

type AuthHandler struct {
	svc        AuthService
	appBaseURL string
}

func NewAuthHandler(svc AuthService, appBaseURL string) *AuthHandler {
	return &AuthHandler{svc: svc, appBaseURL: appBaseURL}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Int64("user_id", u.ID).Msg("user_registered")

	response.OK(w, dto.RegisterData{
		Message: "Verification email sent to " + u.Email + ". Please verify to sign in.",
		User:    dto.NewUserView(u),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	h.login(w, r, req.Email, req.Password)
}

// Token is the OAuth2 password-grant form variant of Login.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		response.WriteError(w, r, domain.ErrInvalidField("body", "invalid form body"))
		return
	}
	form := dto.TokenForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := validate.Struct(form); err != nil {
		response.WriteError(w, r, err)
		return
	}
	h.login(w, r, form.Username, form.Password)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, email, password string) {
	res, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Int64("user_id", res.User.ID).Msg("user_logged_in")

	response.OK(w, dto.TokenData{
		AccessToken: res.Tokens.AccessToken,
		TokenType:   res.Tokens.TokenType,
		ExpiresIn:   res.Tokens.ExpiresIn,
		UserID:      res.User.ID,
		User:        dto.NewUserView(res.User),
	})
}

// Verify renders the HTML page the emailed link lands on.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		logger.WithCtx(r.Context()).Error().Err(err).Msg("verify email failed")
		renderVerifyPage(w, http.StatusServiceUnavailable, pageUnavailable, h.appBaseURL)
		return
	}

	switch outcome {
	case auth.VerifySuccess:
		renderVerifyPage(w, http.StatusOK, pageVerified, h.appBaseURL)
	case auth.VerifyAlreadyVerified:
		renderVerifyPage(w, http.StatusOK, pageAlreadyVerified, h.appBaseURL)
	case auth.VerifyExpired:
		renderVerifyPage(w, http.StatusBadRequest, pageExpired, h.appBaseURL)
	default:
		renderVerifyPage(w, http.StatusBadRequest, pageInvalid, h.appBaseURL)
	}
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendVerificationRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ResendVerification(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageData{Message: "If the account exists and is not verified, a new link has been sent."})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}
	response.OK(w, dto.NewUserView(u))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	var req dto.UpdateProfileRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), u.ID, req.Name)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(updated))
}

// Logout is an acknowledgement only; access tokens are stateless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.OK(w, dto.MessageData{Message: "Logged out successfully"})
}

func (h *AuthHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	targetID, err := pathID(r, "id")
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var req dto.SetRoleRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.SetUserRole(r.Context(), actor, targetID, strings.TrimSpace(req.Role))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.RoleData{Message: "Role updated", UserID: u.ID, Role: u.Role})
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, domain.ErrMissingField(name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidField(name, "must be a positive integer")
	}
	return id, nil
}
