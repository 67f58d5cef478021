// Package billingtest runs an in-memory stand-in for the billing service.
// It exists for tests only: pricing, balances and token rules live here so
// the production client stays a plain HTTP gateway.
package billingtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studyon/internal/billing"
)

const (
	signingSecret  = "billingtest-secret"
	initialBalance = 200
)

type account struct {
	username     string
	passwordHash string
	roles        []string
	balance      float64
	refreshToken string
}

type courseRecord struct {
	courseType string
	price      float64
	title      string
}

// Server is a fake billing HTTP service with the same wire contract as the
// real one. All state is in memory and guarded by a single mutex.
type Server struct {
	URL string

	mu           sync.Mutex
	courses      map[string]courseRecord
	courseOrder  []string
	accounts     map[string]*account
	transactions []billing.Transaction
	nextTxID     int

	now      func() time.Time
	tokenTTL time.Duration

	srv *httptest.Server
}

func NewServer() *Server {
	s := &Server{
		courses:  make(map[string]courseRecord),
		accounts: make(map[string]*account),
		nextTxID: 1,
		now:      time.Now,
		tokenTTL: time.Hour,
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()

	v1 := router.Group("/api/v1")
	{
		v1.GET("/courses", s.listCourses)
		v1.GET("/courses/:code", s.getCourse)
		v1.POST("/courses/new", s.createCourse)
		v1.POST("/courses/:code/edit", s.editCourse)
		v1.POST("/courses/:code/pay", s.payCourse)
		v1.GET("/transactions/filter", s.filterTransactions)
		v1.GET("/users/current", s.currentUser)
		v1.POST("/register", s.register)
		v1.POST("/auth", s.authenticate)
		v1.POST("/token/refresh", s.refreshToken)
	}

	s.srv = httptest.NewServer(router)
	s.URL = s.srv.URL
	return s
}

func (s *Server) Close() {
	s.srv.Close()
}

// APIVersion matches the path prefix this server serves under.
func (s *Server) APIVersion() string {
	return "api/v1"
}

// SetNow pins the clock, used by rental-expiry tests.
func (s *Server) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetTokenTTL shortens issued-token lifetime so refresh paths can be
// exercised without waiting.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = ttl
}

func (s *Server) SeedCourse(code, courseType string, price float64, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[code]; !ok {
		s.courseOrder = append(s.courseOrder, code)
	}
	s.courses[code] = courseRecord{courseType: courseType, price: price, title: title}
}

// SeedUser registers an account directly and returns a valid token pair.
func (s *Server) SeedUser(username, password string, roles []string, balance float64) billing.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	acct := &account{
		username:     username,
		passwordHash: string(hash),
		roles:        roles,
		balance:      balance,
		refreshToken: uuid.NewString(),
	}
	s.accounts[username] = acct

	return billing.TokenPair{
		Token:        s.signToken(acct),
		RefreshToken: acct.refreshToken,
	}
}

// SeedTransaction appends a history record for a user-visible filter test.
func (s *Server) SeedTransaction(txType string, amount float64, courseCode string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, billing.Transaction{
		ID:         s.nextTxID,
		Type:       txType,
		Amount:     amount,
		CourseCode: courseCode,
		CreatedAt:  createdAt,
	})
	s.nextTxID++
}

// Balance reads an account balance for assertions.
func (s *Server) Balance(username string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[username]; ok {
		return acct.balance
	}
	return 0
}

// TransactionCount reports how many history records exist.
func (s *Server) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

func (s *Server) signToken(acct *account) string {
	claims := &billing.TokenClaims{
		Username: acct.username,
		Roles:    acct.roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(signingSecret))
	return signed
}

func (s *Server) bearerAccount(c *gin.Context) *account {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	s.mu.Lock()
	now := s.now
	s.mu.Unlock()

	claims := &billing.TokenClaims{}
	_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(signingSecret), nil
	}, jwt.WithTimeFunc(now))
	if err != nil {
		return nil
	}

	return s.accounts[claims.Username]
}

func failure(c *gin.Context, code int, message string, fields map[string][]string) {
	body := gin.H{"code": code, "message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	c.JSON(code, body)
}

func (s *Server) listCourses(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses := make([]billing.CourseInfo, 0, len(s.courseOrder))
	for _, code := range s.courseOrder {
		record := s.courses[code]
		courses = append(courses, billing.CourseInfo{
			Code:  code,
			Type:  record.courseType,
			Price: record.price,
			Title: record.title,
		})
	}
	c.JSON(http.StatusOK, courses)
}

func (s *Server) getCourse(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := c.Param("code")
	record, ok := s.courses[code]
	if !ok {
		failure(c, http.StatusNotFound, "course not found", nil)
		return
	}
	c.JSON(http.StatusOK, billing.CourseInfo{
		Code:  code,
		Type:  record.courseType,
		Price: record.price,
		Title: record.title,
	})
}

func (s *Server) createCourse(c *gin.Context) {
	if s.bearerAccount(c) == nil {
		failure(c, http.StatusUnauthorized, "JWT Token not found", nil)
		return
	}

	var course billing.CourseInfo
	if err := c.ShouldBindJSON(&course); err != nil || course.Code == "" {
		failure(c, http.StatusBadRequest, "validation failed", map[string][]string{
			"code": {"This value should not be blank."},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[course.Code]; exists {
		failure(c, http.StatusConflict, "course code already exists", nil)
		return
	}

	s.courseOrder = append(s.courseOrder, course.Code)
	s.courses[course.Code] = courseRecord{
		courseType: course.Type,
		price:      course.Price,
		title:      course.Title,
	}
	c.JSON(http.StatusCreated, billing.Ack{Success: true})
}

func (s *Server) editCourse(c *gin.Context) {
	if s.bearerAccount(c) == nil {
		failure(c, http.StatusUnauthorized, "JWT Token not found", nil)
		return
	}

	var course billing.CourseInfo
	if err := c.ShouldBindJSON(&course); err != nil || course.Code == "" {
		failure(c, http.StatusBadRequest, "validation failed", map[string][]string{
			"code": {"This value should not be blank."},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oldCode := c.Param("code")
	if _, exists := s.courses[oldCode]; !exists {
		failure(c, http.StatusNotFound, "course not found", nil)
		return
	}
	if course.Code != oldCode {
		if _, collides := s.courses[course.Code]; collides {
			failure(c, http.StatusConflict, "course code already exists", nil)
			return
		}
		delete(s.courses, oldCode)
		for i, code := range s.courseOrder {
			if code == oldCode {
				s.courseOrder[i] = course.Code
			}
		}
	}

	s.courses[course.Code] = courseRecord{
		courseType: course.Type,
		price:      course.Price,
		title:      course.Title,
	}
	c.JSON(http.StatusOK, billing.Ack{Success: true})
}

func (s *Server) payCourse(c *gin.Context) {
	acct := s.bearerAccount(c)
	if acct == nil {
		failure(c, http.StatusUnauthorized, "JWT Token not found", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := c.Param("code")
	record, ok := s.courses[code]
	if !ok {
		failure(c, http.StatusNotFound, "course not found", nil)
		return
	}

	if acct.balance < record.price {
		failure(c, http.StatusNotAcceptable, "insufficient funds", nil)
		return
	}

	createdAt := s.now()
	acct.balance -= record.price
	s.transactions = append(s.transactions, billing.Transaction{
		ID:         s.nextTxID,
		Type:       billing.TransactionPayment,
		Amount:     record.price,
		CourseCode: code,
		CreatedAt:  createdAt,
	})
	s.nextTxID++

	result := billing.PurchaseResult{Success: true, CourseType: record.courseType}
	if record.courseType == billing.CourseTypeRent {
		expiresAt := createdAt.Add(billing.RentPeriod)
		result.ExpiresAt = &expiresAt
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) filterTransactions(c *gin.Context) {
	if s.bearerAccount(c) == nil {
		failure(c, http.StatusUnauthorized, "JWT Token not found", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txType := c.Query("type")
	courseCode := c.Query("course_code")
	skipExpired := c.Query("skip_expired") != ""

	now := s.now()
	result := make([]billing.Transaction, 0)
	for _, tx := range s.transactions {
		if txType != "" && tx.Type != txType {
			continue
		}
		if courseCode != "" && tx.CourseCode != courseCode {
			continue
		}
		if skipExpired && tx.Type == billing.TransactionPayment &&
			!tx.CreatedAt.Add(billing.RentPeriod).After(now) {
			continue
		}
		result = append(result, tx)
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) currentUser(c *gin.Context) {
	acct := s.bearerAccount(c)
	if acct == nil {
		failure(c, http.StatusUnauthorized, "JWT Token not found", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, billing.UserAccount{
		Username: acct.username,
		Roles:    acct.roles,
		Balance:  acct.balance,
	})
}

func (s *Server) register(c *gin.Context) {
	var req billing.UserAccount
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		failure(c, http.StatusBadRequest, "validation failed", map[string][]string{
			"username": {"This value should not be blank."},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.accounts[req.Username]; taken {
		failure(c, http.StatusBadRequest, "email already registered", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		failure(c, http.StatusInternalServerError, "failed to hash password", nil)
		return
	}

	acct := &account{
		username:     req.Username,
		passwordHash: string(hash),
		roles:        []string{"ROLE_USER"},
		balance:      initialBalance,
		refreshToken: uuid.NewString(),
	}
	s.accounts[req.Username] = acct

	c.JSON(http.StatusCreated, billing.UserAccount{
		Username:     acct.username,
		Roles:        acct.roles,
		Balance:      acct.balance,
		Token:        s.signToken(acct),
		RefreshToken: acct.refreshToken,
	})
}

func (s *Server) authenticate(c *gin.Context) {
	var req billing.UserAccount
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "validation failed", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.Username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(req.Password)) != nil {
		failure(c, http.StatusUnauthorized, "Invalid credentials.", nil)
		return
	}

	c.JSON(http.StatusOK, billing.UserAccount{
		Username:     acct.username,
		Roles:        acct.roles,
		Balance:      acct.balance,
		Token:        s.signToken(acct),
		RefreshToken: acct.refreshToken,
	})
}

func (s *Server) refreshToken(c *gin.Context) {
	var req billing.TokenPair
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		failure(c, http.StatusBadRequest, "refresh_token is required", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.refreshToken == req.RefreshToken {
			c.JSON(http.StatusOK, billing.TokenPair{
				Token:        s.signToken(acct),
				RefreshToken: acct.refreshToken,
			})
			return
		}
	}
	failure(c, http.StatusUnauthorized, "invalid refresh token", nil)
}
