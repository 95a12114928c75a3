package handlers

import (
	"net/http"
	"time"

	"insightpaper/internal/apperr"
	"insightpaper/internal/export"
	"insightpaper/internal/models"
	"insightpaper/internal/security"
	"insightpaper/internal/service"
)

// UserHandler handles authentication and account HTTP requests
type UserHandler struct {
	authService   *service.AuthService
	cookies       security.CookiePolicy
	authMaxAge    time.Duration
	refreshMaxAge time.Duration
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *service.AuthService, cookies security.CookiePolicy, authMaxAge, refreshMaxAge time.Duration) *UserHandler {
	return &UserHandler{
		authService:   authService,
		cookies:       cookies,
		authMaxAge:    authMaxAge,
		refreshMaxAge: refreshMaxAge,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Login checks the password and starts the second factor.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	res, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, "Error during login", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": true, "doubleFactorEnabled": res.DoubleFactorEnabled})
}

// SendOTP re-sends the emailed code.
func (h *UserHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	res, err := h.authService.SendOTP(r.Context(), req.Email)
	if err != nil {
		respondWithError(w, "Error sending otp", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": true, "doubleFactorEnabled": res.DoubleFactorEnabled})
}

// VerifyOTP completes sign-in and sets both cookies.
func (h *UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	session, err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondWithError(w, "Error verifying otp", err)
		return
	}
	http.SetCookie(w, h.cookies.Cookie(r, security.AuthCookieName, session.AuthToken, h.authMaxAge))
	http.SetCookie(w, h.cookies.Cookie(r, security.RefreshCookieName, session.RefreshToken, h.refreshMaxAge))
	writeJSON(w, http.StatusOK, map[string]any{"result": true, "user": session.User.Public()})
}

// RefreshToken issues a new auth cookie from the refresh cookie.
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(security.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		respondWithError(w, "", apperr.ErrUnauthorized)
		return
	}
	session, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		respondWithError(w, "Error refreshing token", err)
		return
	}
	http.SetCookie(w, h.cookies.Cookie(r, security.AuthCookieName, session.AuthToken, h.authMaxAge))
	writeJSON(w, http.StatusOK, map[string]any{"result": true, "user": session.User.Public()})
}

// Logout clears both cookies; tokens stay valid until they expire.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.DeleteCookie(r, security.AuthCookieName))
	http.SetCookie(w, h.cookies.DeleteCookie(r, security.RefreshCookieName))
	writeResult(w, http.StatusOK, true)
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	if err := h.authService.RequestPasswordRecovery(r.Context(), req.Email); err != nil {
		respondWithError(w, "Error requesting password recovery", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *UserHandler) ConfirmPasswordRecovery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	if err := h.authService.ConfirmPasswordRecovery(r.Context(), req.Token, req.Password); err != nil {
		respondWithError(w, "Error confirming password recovery", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

// CreateAccount is student self-registration.
func (h *UserHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	user, err := h.authService.CreateStudentAccount(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(w, "Error creating account", err)
		return
	}
	writeResult(w, http.StatusCreated, user.Public())
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	user, err := h.authService.GetUser(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, "Error loading user", err)
		return
	}
	writeResult(w, http.StatusOK, user.Public())
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	user, err := h.authService.UpdateProfile(r.Context(), p.UserID, req.Name, req.Email)
	if err != nil {
		respondWithError(w, "Error updating profile", err)
		return
	}
	writeResult(w, http.StatusOK, user.Public())
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.authService.ChangePassword(r.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(w, "Error changing password", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

// EnableOTPApp returns the authenticator secret and otpauth URL.
func (h *UserHandler) EnableOTPApp(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	enrollment, err := h.authService.EnableOTPApp(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, "Error enabling otp app", err)
		return
	}
	writeResult(w, http.StatusOK, enrollment)
}

func (h *UserHandler) ConfirmOTPApp(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.authService.ConfirmOTPActivation(r.Context(), p.UserID, req.OTP); err != nil {
		respondWithError(w, "Error confirming otp app", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *UserHandler) DisableOTPApp(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.authService.DisableOTPApp(r.Context(), p.UserID, req.OTP); err != nil {
		respondWithError(w, "Error disabling otp app", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

// ListUsers is admin only.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, "Error loading users", err)
		return
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	writeResult(w, http.StatusOK, out)
}

func (h *UserHandler) CreateProfessor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	user, err := h.authService.CreateProfessor(r.Context(), p.UserID, req.Name, req.Email)
	if err != nil {
		respondWithError(w, "Error creating professor", err)
		return
	}
	writeResult(w, http.StatusCreated, user.Public())
}

func (h *UserHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	var req struct {
		Roles []string `json:"roles"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.authService.UpdateRoles(r.Context(), p.UserID, userID, req.Roles); err != nil {
		respondWithError(w, "Error updating roles", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.authService.DeleteUser(r.Context(), p.UserID, userID); err != nil {
		respondWithError(w, "Error deleting user", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

// ExportUsers downloads every user as a spreadsheet.
func (h *UserHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, "Error loading users", err)
		return
	}
	data, err := export.Users(users)
	if err != nil {
		respondWithError(w, "Error building users workbook", err)
		return
	}
	writeWorkbook(w, export.Filename("users"), data)
}

func writeWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
