package course

import (
	"context"
	"errors"
	"time"

	"studyon/internal/billing"
	"studyon/internal/logger"
	"studyon/internal/metrics"
)

var ErrCodeTaken = errors.New("course code already exists")

// BillingGateway is the slice of the billing client this package needs.
type BillingGateway interface {
	ListCourses(ctx context.Context) ([]billing.CourseInfo, error)
	GetCourse(ctx context.Context, code string) (*billing.CourseInfo, error)
	CreateCourse(ctx context.Context, token string, course billing.CourseInfo) (*billing.Ack, error)
	UpdateCourse(ctx context.Context, token, code string, course billing.CourseInfo) (*billing.Ack, error)
	PayCourse(ctx context.Context, token, code string) (*billing.PurchaseResult, error)
	Transactions(ctx context.Context, token string, filter billing.TransactionFilter) ([]billing.Transaction, error)
}

// Notifier sends the purchase confirmation. May be nil when email is off.
type Notifier interface {
	SendPurchaseConfirmation(ctx context.Context, email, courseTitle, courseType string, expiresAt *time.Time) error
}

type Service interface {
	List(ctx context.Context, token string) ([]View, error)
	Get(ctx context.Context, id int, token string) (*View, error)
	Create(ctx context.Context, token string, req SaveCourseRequest) (*Course, error)
	Update(ctx context.Context, token string, id int, req SaveCourseRequest) (*Course, error)
	Delete(ctx context.Context, id int) error
	Pay(ctx context.Context, token, username string, id int) (*PayResponse, error)
}

type service struct {
	repo     Repository
	billing  BillingGateway
	notifier Notifier
}

func NewService(repo Repository, gateway BillingGateway, notifier Notifier) Service {
	return &service{
		repo:     repo,
		billing:  gateway,
		notifier: notifier,
	}
}

// List returns every local course joined with billing pricing. With a
// token, each view also carries the caller's active purchase state.
func (s *service) List(ctx context.Context, token string) ([]View, error) {
	courses, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	infos, err := s.billing.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	pricing := make(map[string]billing.CourseInfo, len(infos))
	for _, info := range infos {
		pricing[info.Code] = info
	}

	purchases, err := s.activePurchases(ctx, token, "")
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(courses))
	for _, c := range courses {
		views = append(views, buildView(c, pricing[c.Code], purchases[c.Code]))
	}

	return views, nil
}

func (s *service) Get(ctx context.Context, id int, token string) (*View, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info, err := s.billing.GetCourse(ctx, c.Code)
	if err != nil {
		return nil, err
	}

	purchases, err := s.activePurchases(ctx, token, c.Code)
	if err != nil {
		return nil, err
	}

	view := buildView(*c, *info, purchases[c.Code])
	return &view, nil
}

// Create registers the course with billing first; the local row only exists
// once billing has acknowledged the code.
func (s *service) Create(ctx context.Context, token string, req SaveCourseRequest) (*Course, error) {
	taken, err := s.repo.CodeExists(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCodeTaken
	}

	if _, err := s.billing.CreateCourse(ctx, token, billingInfo(req)); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, req.Code, req.Title, req.Description)
}

func (s *service) Update(ctx context.Context, token string, id int, req SaveCourseRequest) (*Course, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != existing.Code {
		taken, err := s.repo.CodeExists(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCodeTaken
		}
	}

	if _, err := s.billing.UpdateCourse(ctx, token, existing.Code, billingInfo(req)); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, req.Code, req.Title, req.Description)
}

// Delete removes only the local row; billing keeps the purchase history.
func (s *service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) Pay(ctx context.Context, token, username string, id int) (*PayResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.billing.PayCourse(ctx, token, c.Code)
	if err != nil {
		var rejected *billing.RejectedError
		if errors.As(err, &rejected) {
			metrics.RecordCoursePurchase("unknown", "rejected")
		}
		return nil, err
	}
	metrics.RecordCoursePurchase(result.CourseType, "success")

	if s.notifier != nil {
		if err := s.notifier.SendPurchaseConfirmation(ctx, username, c.Title, result.CourseType, result.ExpiresAt); err != nil {
			// Письмо не критично для покупки
			logger.Errorf("failed to queue purchase confirmation for %s: %v", username, err)
		}
	}

	return &PayResponse{
		Success:    result.Success,
		CourseType: result.CourseType,
		ExpiresAt:  result.ExpiresAt,
	}, nil
}

// activePurchases maps course code to the caller's newest unexpired payment
// transaction. Anonymous callers get an empty map.
func (s *service) activePurchases(ctx context.Context, token, courseCode string) (map[string]billing.Transaction, error) {
	if token == "" {
		return map[string]billing.Transaction{}, nil
	}

	transactions, err := s.billing.Transactions(ctx, token, billing.TransactionFilter{
		Type:        billing.TransactionPayment,
		CourseCode:  courseCode,
		SkipExpired: true,
	})
	if err != nil {
		return nil, err
	}

	purchases := make(map[string]billing.Transaction, len(transactions))
	for _, tx := range transactions {
		if tx.CourseCode == "" {
			continue
		}
		if prev, ok := purchases[tx.CourseCode]; !ok || tx.CreatedAt.After(prev.CreatedAt) {
			purchases[tx.CourseCode] = tx
		}
	}

	return purchases, nil
}

func buildView(c Course, info billing.CourseInfo, purchase billing.Transaction) View {
	view := View{
		Course: c,
		Type:   info.Type,
		Price:  info.Price,
	}

	if purchase.ID != 0 {
		view.Purchased = true
		if info.Type == billing.CourseTypeRent {
			expiresAt := purchase.CreatedAt.Add(billing.RentPeriod)
			view.ExpiresAt = &expiresAt
		}
	}

	return view
}

func billingInfo(req SaveCourseRequest) billing.CourseInfo {
	price := req.Price
	if req.Type == billing.CourseTypeFree {
		price = 0
	}
	return billing.CourseInfo{
		Code:  req.Code,
		Type:  req.Type,
		Price: price,
		Title: req.Title,
	}
}
