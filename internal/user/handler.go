package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyon/internal/api"
	"studyon/internal/billing"
	"studyon/internal/logger"
	"studyon/internal/session"
)

// BillingGateway is the slice of the billing client the account flows need.
type BillingGateway interface {
	Register(ctx context.Context, username, password string) (*billing.UserAccount, error)
	Authenticate(ctx context.Context, username, password string) (*billing.UserAccount, error)
	CurrentUser(ctx context.Context, token string) (*billing.UserAccount, error)
	Transactions(ctx context.Context, token string, filter billing.TransactionFilter) ([]billing.Transaction, error)
}

type Sessions interface {
	Create(ctx context.Context, account *billing.UserAccount) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

// Notifier sends the welcome email. May be nil when email is off.
type Notifier interface {
	SendWelcome(ctx context.Context, email string) error
}

type Handler struct {
	billing      BillingGateway
	sessions     Sessions
	notifier     Notifier
	cookieTTL    int
	secureCookie bool
}

func NewHandler(gateway BillingGateway, sessions Sessions, notifier Notifier, cookieTTL int) *Handler {
	return &Handler{
		billing:   gateway,
		sessions:  sessions,
		notifier:  notifier,
		cookieTTL: cookieTTL,
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, id string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, maxAge, "/", "", h.secureCookie, true)
}

// @Summary      Register
// @Description  Creates the account in billing and opens a session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body user.RegisterRequest true "Credentials"
// @Success      201 {object} user.Profile
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondValidationError(c, err)
		return
	}

	account, err := h.billing.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		api.RespondBillingError(c, err)
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to open session"})
		return
	}
	h.setSessionCookie(c, sess.ID, h.cookieTTL)

	if h.notifier != nil {
		if err := h.notifier.SendWelcome(c.Request.Context(), account.Username); err != nil {
			logger.Errorf("failed to queue welcome email for %s: %v", account.Username, err)
		}
	}

	c.JSON(http.StatusCreated, Profile{
		Username: account.Username,
		Roles:    account.Roles,
		Balance:  account.Balance,
	})
}

// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body user.LoginRequest true "Credentials"
// @Success      200 {object} user.Profile
// @Failure      401 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondValidationError(c, err)
		return
	}

	account, err := h.billing.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		api.RespondBillingError(c, err)
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to open session"})
		return
	}
	h.setSessionCookie(c, sess.ID, h.cookieTTL)

	c.JSON(http.StatusOK, Profile{
		Username: account.Username,
		Roles:    account.Roles,
		Balance:  account.Balance,
	})
}

// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200 {object} api.MessageResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if id, err := c.Cookie(session.CookieName); err == nil && id != "" {
		if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
			logger.Errorf("failed to delete session: %v", err)
		}
	}
	h.setSessionCookie(c, "", -1)

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Logged out"})
}

// @Summary      Current profile
// @Description  Username, roles and balance straight from billing.
// @Tags         user
// @Produce      json
// @Security     SessionCookie
// @Success      200 {object} user.Profile
// @Failure      401 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /me [get]
func (h *Handler) Me(c *gin.Context) {
	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	account, err := h.billing.CurrentUser(c.Request.Context(), sess.AccessToken)
	if err != nil {
		api.RespondBillingError(c, err)
		return
	}

	c.JSON(http.StatusOK, Profile{
		Username: account.Username,
		Roles:    account.Roles,
		Balance:  account.Balance,
	})
}

// @Summary      Transaction history
// @Description  Payment and deposit history from billing, optionally filtered.
// @Tags         user
// @Produce      json
// @Security     SessionCookie
// @Param        type query string false "payment or deposit"
// @Param        course_code query string false "Course code"
// @Param        skip_expired query bool false "Hide expired rentals"
// @Success      200 {array} billing.Transaction
// @Failure      401 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /me/transactions [get]
func (h *Handler) Transactions(c *gin.Context) {
	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	filter := billing.TransactionFilter{
		Type:        c.Query("type"),
		CourseCode:  c.Query("course_code"),
		SkipExpired: c.Query("skip_expired") == "true" || c.Query("skip_expired") == "1",
	}

	transactions, err := h.billing.Transactions(c.Request.Context(), sess.AccessToken, filter)
	if err != nil {
		api.RespondBillingError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}
