package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vidtube/internal/apperr"
	"vidtube/internal/service"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Options configures the HTTP surface.
type Options struct {
	// UploadDir receives multipart files until the owning request finishes.
	UploadDir      string
	SecureCookies  bool
	CORSOrigin     string
	MaxBodyBytes   int64
	MaxUploadBytes int64
	// Limiter guards the unauthenticated account routes. Nil disables limiting.
	Limiter *RateLimiter
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	sessions service.SessionService
	profiles service.ProfileService
	channels service.ChannelService
	opts     Options
	log      logrus.FieldLogger
}

func NewHandler(sessions service.SessionService, profiles service.ProfileService, channels service.ChannelService, opts Options, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.UploadDir == "" {
		opts.UploadDir = filepath.Join(os.TempDir(), "vidtube-uploads")
	}
	return &Handler{
		sessions: sessions,
		profiles: profiles,
		channels: channels,
		opts:     opts,
		log:      log.WithField("component", "http"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(h.opts.CORSOrigin), bodyLimit(h.opts.MaxBodyBytes, h.opts.MaxUploadBytes))

	api := router.Group("/api/v1")
	api.GET("/healthcheck", h.healthcheck)

	users := api.Group("/users")
	{
		open := users.Group("")
		if h.opts.Limiter != nil {
			open.Use(h.opts.Limiter.Middleware(h.log))
		}
		open.POST("/register", h.register)
		open.POST("/login", h.login)
		open.POST("/refresh-token", h.refreshToken)

		secured := users.Group("", h.requireAuth())
		secured.POST("/logout", h.logout)
		secured.POST("/change-password", h.changePassword)
		secured.GET("/current-user", h.currentUser)
		secured.GET("/c/:username", h.channelProfile)
		secured.PATCH("/update-account", h.updateAccount)
		secured.PATCH("/avatar", h.updateAvatar)
		secured.PATCH("/cover-image", h.updateCoverImage)
		secured.GET("/history", h.watchHistory)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

func (h *Handler) healthcheck(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "OK"}, "health check passed")
}

func (h *Handler) register(c *gin.Context) {
	avatar, cleanupAvatar, err := h.saveUpload(c, "avatar")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer cleanupAvatar()

	cover, cleanupCover, err := h.saveUpload(c, "coverImage")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer cleanupCover()

	user, err := h.profiles.Register(c.Request.Context(), service.RegisterInput{
		Fullname:       c.PostForm("fullname"),
		Email:          c.PostForm("email"),
		Username:       c.PostForm("username"),
		Password:       c.PostForm("password"),
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, user, "user registered successfully")
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, bindError(err))
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	h.setSessionCookies(c, result.AccessToken, result.RefreshToken)
	respond(c, http.StatusOK, result, "user logged in successfully")
}

func (h *Handler) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshTokenCookie)
	if token == "" {
		// An absent or malformed body leaves the token blank, which the service rejects.
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	h.setSessionCookies(c, pair.AccessToken, pair.RefreshToken)
	respond(c, http.StatusOK, pair, "access token refreshed")
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), identityFrom(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	h.clearSessionCookies(c)
	respond(c, http.StatusOK, gin.H{}, "user logged out")
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, bindError(err))
		return
	}
	if err := h.sessions.ChangePassword(c.Request.Context(), identityFrom(c), req.OldPassword, req.NewPassword); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "password changed successfully")
}

func (h *Handler) currentUser(c *gin.Context) {
	user, err := h.sessions.CurrentUser(c.Request.Context(), identityFrom(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, user, "current user fetched successfully")
}

func (h *Handler) channelProfile(c *gin.Context) {
	profile, err := h.channels.GetChannelProfile(c.Request.Context(), identityFrom(c), c.Param("username"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, profile, "user channel fetched successfully")
}

func (h *Handler) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, bindError(err))
		return
	}
	user, err := h.profiles.UpdateAccountDetails(c.Request.Context(), identityFrom(c), req.Fullname, req.Email)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, user, "account details updated successfully")
}

func (h *Handler) updateAvatar(c *gin.Context) {
	path, cleanup, err := h.saveUpload(c, "avatar")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer cleanup()

	user, err := h.profiles.UpdateAvatar(c.Request.Context(), identityFrom(c), path)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, user, "avatar image updated successfully")
}

func (h *Handler) updateCoverImage(c *gin.Context) {
	path, cleanup, err := h.saveUpload(c, "coverImage")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	defer cleanup()

	user, err := h.profiles.UpdateCoverImage(c.Request.Context(), identityFrom(c), path)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, user, "cover image updated successfully")
}

func (h *Handler) watchHistory(c *gin.Context) {
	history, err := h.channels.GetWatchHistory(c.Request.Context(), identityFrom(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, history, "watch history fetched successfully")
}

func (h *Handler) setSessionCookies(c *gin.Context, access, refresh string) {
	c.SetCookie(accessTokenCookie, access, 0, "/", "", h.opts.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, refresh, 0, "/", "", h.opts.SecureCookies, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", h.opts.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", h.opts.SecureCookies, true)
}

// saveUpload writes the multipart file under field to the upload dir.
// A missing file yields an empty path so the service can report it.
func (h *Handler) saveUpload(c *gin.Context, field string) (string, func(), error) {
	noop := func() {}
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", noop, nil
		}
		return "", noop, bindError(err)
	}

	if err := os.MkdirAll(h.opts.UploadDir, 0o755); err != nil {
		return "", noop, apperr.Internal("failed to store upload", err)
	}
	dst := filepath.Join(h.opts.UploadDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", noop, apperr.Internal("failed to store upload", err)
	}

	return dst, func() {
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			h.log.WithError(err).WithField("path", dst).Warn("remove temp upload")
		}
	}, nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &apperr.Error{Code: http.StatusRequestEntityTooLarge, Message: "request body too large", Err: err}
	}
	return &apperr.Error{Code: http.StatusBadRequest, Message: "invalid request body", Err: err}
}
