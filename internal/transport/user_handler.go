package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset token
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// ChangePasswordRequest replaces the password of the signed-in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UpdateProfileRequest edits the signed-in user's profile
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"max=30"`
	Address   string `json:"address" validate:"max=500"`
}

// AdminUpdateUserRequest changes role or active flag of an account
type AdminUpdateUserRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=user admin"`
	Active *bool   `json:"active"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// UserProfile represents user profile data
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
}

func profileOf(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Address:   user.Address,
		Role:      user.Role,
		Active:    user.Active,
	}
}

func profilesOf(users []*domain.User) []UserProfile {
	out := make([]UserProfile, 0, len(users))
	for _, user := range users {
		out = append(out, profileOf(user))
	}
	return out
}

// UserHandler handles HTTP requests for accounts and authentication
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all auth routes. limiter guards the credential endpoints.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware, limiter func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(limiter)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
		})
		r.Post("/refresh", h.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.GetProfile)
			r.Put("/me", h.UpdateProfile)
			r.Put("/me/password", h.ChangePassword)
		})
	})
}

// RegisterAdminRoutes registers user management under an admin-only router
func (h *UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Put("/users/{id}", h.AdminUpdateUser)
	r.Delete("/users/{id}", h.DeleteUser)
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.DecodeFailed(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to register user")
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithSuccess(w, http.StatusCreated, profileOf(user))
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.DecodeFailed(w, err)
		return
	}

	accessToken, refreshToken, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to login")
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithSuccess(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         profileOf(user),
	})
}

// Logout handles user logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Logout decode failed", zap.Error(err))
		middleware.DecodeFailed(w, err)
		return
	}

	if err := h.userService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to logout")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, message{"logged out successfully"})
}

// RefreshToken handles token refresh
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Refresh token validation failed", zap.Error(err))
		middleware.DecodeFailed(w, err)
		return
	}

	newAccessToken, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to refresh token")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, RefreshResponse{AccessToken: newAccessToken})
}

// ForgotPassword mails a reset link. The answer is the same whether or not the email is known.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to start password reset")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, message{"if the email exists, a reset link has been sent"})
}

// ResetPassword sets a new password from a reset token
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to reset password")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, message{"password has been reset"})
}

// GetProfile handles getting user profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get user profile")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, profileOf(user))
}

// UpdateProfile edits the signed-in user's profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update profile")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, profileOf(user))
}

// ChangePassword replaces the password and signs out every other session
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to change password")
		return
	}

	middleware.RespondWithSuccess(w, http.StatusOK, message{"password updated"})
}

// ListUsers pages through accounts for the back office
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)

	users, total, err := h.userService.ListUsers(r.Context(), r.URL.Query().Get("search"), page, limit)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to list users")
		return
	}

	middleware.RespondWithPage(w, profilesOf(users), middleware.NewPagination(page, limit, total))
}

// AdminUpdateUser changes role or active flag
func (h *UserHandler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AdminUpdateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.DecodeFailed(w, err)
		return
	}

	user, err := h.userService.AdminUpdateUser(r.Context(), userID, service.AdminUserInput{
		Role:   req.Role,
		Active: req.Active,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to update user")
		return
	}

	h.logger.Info("User updated by admin", zap.String("user_id", userID.String()))
	middleware.RespondWithSuccess(w, http.StatusOK, profileOf(user))
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), actorID, userID); err != nil {
		respondWithServiceError(w, h.logger, err, "failed to delete user")
		return
	}

	h.logger.Info("User deleted", zap.String("user_id", userID.String()), zap.String("actor_id", actorID.String()))
	middleware.RespondWithSuccess(w, http.StatusOK, message{"user deleted"})
}
