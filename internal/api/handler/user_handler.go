package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidstream/accounts-api/internal/api/metrics"
	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// UserHandler handles HTTP requests for account and session operations.
type UserHandler struct {
	users   ports.UserService
	tokens  ports.TokenService
	media   ports.MediaStore
	limiter ports.LoginLimiter
}

func NewUserHandler(users ports.UserService, tokens ports.TokenService, media ports.MediaStore, limiter ports.LoginLimiter) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, media: media, limiter: limiter}
}

// Register creates a new account from a multipart form: text fields
// full_name, username, email, password plus an avatar file and an optional
// coverImage file.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Success      201  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	input := ports.RegisterInput{
		FullName: c.FormValue("full_name"),
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}

	avatar, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}
	input.AvatarURL, err = h.uploadMedia(c, avatar)
	if err != nil {
		return err
	}

	if cover, err := c.FormFile("coverImage"); err == nil {
		input.CoverImageURL, err = h.uploadMedia(c, cover)
		if err != nil {
			return err
		}
	}

	user, err := h.users.Register(c.Request().Context(), input)
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login authenticates by username or email and issues a token pair, delivered
// both in the JSON body and as httpOnly cookies.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	allowed, err := h.limiter.Allowed(ctx, req.Identifier)
	if err != nil {
		// a throttle outage must not lock everyone out
		allowed = true
	}
	if !allowed {
		metrics.LoginThrottledTotal.Inc()
		return domain.ErrTooManyAttempts
	}

	userID, err := h.tokens.Authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			_ = h.limiter.RecordFailure(ctx, req.Identifier)
		}
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	_ = h.limiter.Reset(ctx, req.Identifier)

	pair, err := h.tokens.Issue(ctx, userID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	user, err := h.users.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, sessionResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout invalidates the stored refresh token and clears the auth cookies.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.tokens.Invalidate(c.Request().Context(), userID); err != nil {
		return err
	}

	clearAuthCookies(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// RefreshToken rotates the token pair. The presented refresh token is read
// from the JSON body or the refreshToken cookie.
//
// @Summary      Refresh the token pair
// @Tags         users
// @Accept       json
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/refresh-token [post]
func (h *UserHandler) RefreshToken(c echo.Context) error {
	var req refreshRequest
	_ = c.Bind(&req)

	presented := req.RefreshToken
	if presented == "" {
		if cookie, err := c.Cookie(refreshCookie); err == nil {
			presented = cookie.Value
		}
	}
	if presented == "" {
		metrics.RefreshesTotal.WithLabelValues("failure").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.tokens.Refresh(c.Request().Context(), presented)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, sessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// ChangePassword verifies the old password and stores a new hash.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Old and new passwords"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  errorResponse
// @Router       /users/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// CurrentUser returns the authenticated user's profile.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /users/current-user [get]
func (h *UserHandler) CurrentUser(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdateAccount updates full name and email.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateAccountRequest  true  "New profile fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Router       /users/update-account [patch]
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.UpdateAccount(c.Request().Context(), userID, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdateAvatar replaces the avatar with an uploaded file.
//
// @Summary      Update avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Router       /users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateMediaField(c, "avatar", h.users.UpdateAvatar)
}

// UpdateCoverImage replaces the cover image with an uploaded file.
//
// @Summary      Update cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Router       /users/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateMediaField(c, "coverImage", h.users.UpdateCoverImage)
}

// updateMediaField uploads the file from the named form field and applies the
// resulting URL to the user record.
func (h *UserHandler) updateMediaField(c echo.Context, field string, apply func(ctx context.Context, userID, url string) (*domain.User, error)) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(field)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, field+" file is required")
	}

	url, err := h.uploadMedia(c, fh)
	if err != nil {
		return err
	}

	user, err := apply(c.Request().Context(), userID, url)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

func (h *UserHandler) uploadMedia(c echo.Context, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer src.Close()

	url, err := h.media.Upload(c.Request().Context(), fh.Filename, fh.Header.Get("Content-Type"), src, fh.Size)
	if err != nil {
		return "", err
	}
	return url, nil
}

func setAuthCookies(c echo.Context, pair *ports.TokenPair) {
	c.SetCookie(authCookie(accessCookie, pair.AccessToken, false))
	c.SetCookie(authCookie(refreshCookie, pair.RefreshToken, false))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(authCookie(accessCookie, "", true))
	c.SetCookie(authCookie(refreshCookie, "", true))
}

func authCookie(name, value string, expire bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	if expire {
		cookie.MaxAge = -1
	}
	return cookie
}
