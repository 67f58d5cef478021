package course

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studyon/internal/billing"
	"studyon/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, code, title, description string) (*Course, error) {
	args := m.Called(ctx, code, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Course), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Course), args.Error(1)
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Course, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Course), args.Error(1)
}

func (m *MockRepository) GetAll(ctx context.Context) ([]Course, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Course), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int, code, title, description string) (*Course, error) {
	args := m.Called(ctx, id, code, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Course), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

type MockBilling struct {
	mock.Mock
}

func (m *MockBilling) ListCourses(ctx context.Context) ([]billing.CourseInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.CourseInfo), args.Error(1)
}

func (m *MockBilling) GetCourse(ctx context.Context, code string) (*billing.CourseInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CourseInfo), args.Error(1)
}

func (m *MockBilling) CreateCourse(ctx context.Context, token string, course billing.CourseInfo) (*billing.Ack, error) {
	args := m.Called(ctx, token, course)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Ack), args.Error(1)
}

func (m *MockBilling) UpdateCourse(ctx context.Context, token, code string, course billing.CourseInfo) (*billing.Ack, error) {
	args := m.Called(ctx, token, code, course)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Ack), args.Error(1)
}

func (m *MockBilling) PayCourse(ctx context.Context, token, code string) (*billing.PurchaseResult, error) {
	args := m.Called(ctx, token, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.PurchaseResult), args.Error(1)
}

func (m *MockBilling) Transactions(ctx context.Context, token string, filter billing.TransactionFilter) ([]billing.Transaction, error) {
	args := m.Called(ctx, token, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Transaction), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPurchaseConfirmation(ctx context.Context, email, courseTitle, courseType string, expiresAt *time.Time) error {
	args := m.Called(ctx, email, courseTitle, courseType, expiresAt)
	return args.Error(0)
}

func TestService_List_MergesBillingData(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockBilling)
	svc := NewService(repo, gateway, nil)

	paidAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	repo.On("GetAll", mock.Anything).Return([]Course{
		{ID: 1, Code: "deep_learning", Title: "Deep Learning"},
		{ID: 2, Code: "c_sharp_course", Title: "C#"},
	}, nil)
	gateway.On("ListCourses", mock.Anything).Return([]billing.CourseInfo{
		{Code: "deep_learning", Type: billing.CourseTypeRent, Price: 50},
		{Code: "c_sharp_course", Type: billing.CourseTypeBuy, Price: 250},
	}, nil)
	gateway.On("Transactions", mock.Anything, "token-1", billing.TransactionFilter{
		Type:        billing.TransactionPayment,
		SkipExpired: true,
	}).Return([]billing.Transaction{
		{ID: 7, Type: billing.TransactionPayment, Amount: 50, CourseCode: "deep_learning", CreatedAt: paidAt},
	}, nil)

	views, err := svc.List(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, billing.CourseTypeRent, views[0].Type)
	assert.Equal(t, float64(50), views[0].Price)
	assert.True(t, views[0].Purchased)
	require.NotNil(t, views[0].ExpiresAt)
	assert.True(t, views[0].ExpiresAt.Equal(paidAt.Add(7*24*time.Hour)))

	assert.False(t, views[1].Purchased)
	assert.Nil(t, views[1].ExpiresAt)

	gateway.AssertExpectations(t)
}

func TestService_List_AnonymousSkipsTransactions(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockBilling)
	svc := NewService(repo, gateway, nil)

	repo.On("GetAll", mock.Anything).Return([]Course{{ID: 1, Code: "python_course"}}, nil)
	gateway.On("ListCourses", mock.Anything).Return([]billing.CourseInfo{
		{Code: "python_course", Type: billing.CourseTypeFree, Price: 0},
	}, nil)

	views, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].Purchased)

	gateway.AssertNotCalled(t, "Transactions", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_List_BillingUnavailable(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockBilling)
	svc := NewService(repo, gateway, nil)

	repo.On("GetAll", mock.Anything).Return([]Course{}, nil)
	gateway.On("ListCourses", mock.Anything).Return(nil, &billing.UnavailableError{})

	views, err := svc.List(context.Background(), "")
	assert.Nil(t, views)

	var unavailable *billing.UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestService_Create_BillingFirst(t *testing.T) {
	t.Run("billing rejection keeps local store untouched", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		svc := NewService(repo, gateway, nil)

		repo.On("CodeExists", mock.Anything, "dup").Return(false, nil)
		gateway.On("CreateCourse", mock.Anything, "admin-token", mock.Anything).
			Return(nil, &billing.RejectedError{Status: http.StatusConflict, Message: "course code already exists"})

		_, err := svc.Create(context.Background(), "admin-token", SaveCourseRequest{
			Code: "dup", Title: "Dup", Type: billing.CourseTypeBuy, Price: 10,
		})

		var rejected *billing.RejectedError
		require.ErrorAs(t, err, &rejected)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("local duplicate short-circuits before billing", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		svc := NewService(repo, gateway, nil)

		repo.On("CodeExists", mock.Anything, "taken").Return(true, nil)

		_, err := svc.Create(context.Background(), "admin-token", SaveCourseRequest{
			Code: "taken", Title: "Taken", Type: billing.CourseTypeFree,
		})

		assert.ErrorIs(t, err, ErrCodeTaken)
		gateway.AssertNotCalled(t, "CreateCourse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("free course price forced to zero", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		svc := NewService(repo, gateway, nil)

		repo.On("CodeExists", mock.Anything, "free_course").Return(false, nil)
		gateway.On("CreateCourse", mock.Anything, "admin-token", billing.CourseInfo{
			Code: "free_course", Type: billing.CourseTypeFree, Price: 0, Title: "Free",
		}).Return(&billing.Ack{Success: true}, nil)
		repo.On("Create", mock.Anything, "free_course", "Free", "").
			Return(&Course{ID: 3, Code: "free_course", Title: "Free"}, nil)

		created, err := svc.Create(context.Background(), "admin-token", SaveCourseRequest{
			Code: "free_course", Title: "Free", Type: billing.CourseTypeFree, Price: 99,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, created.ID)
		gateway.AssertExpectations(t)
	})
}

func TestService_Update(t *testing.T) {
	t.Run("billing edit addressed to previous code", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		svc := NewService(repo, gateway, nil)

		repo.On("GetByID", mock.Anything, 1).Return(&Course{ID: 1, Code: "old_code", Title: "Old"}, nil)
		repo.On("CodeExists", mock.Anything, "new_code").Return(false, nil)
		gateway.On("UpdateCourse", mock.Anything, "admin-token", "old_code", billing.CourseInfo{
			Code: "new_code", Type: billing.CourseTypeBuy, Price: 120, Title: "New",
		}).Return(&billing.Ack{Success: true}, nil)
		repo.On("Update", mock.Anything, 1, "new_code", "New", "").
			Return(&Course{ID: 1, Code: "new_code", Title: "New"}, nil)

		updated, err := svc.Update(context.Background(), "admin-token", 1, SaveCourseRequest{
			Code: "new_code", Title: "New", Type: billing.CourseTypeBuy, Price: 120,
		})
		require.NoError(t, err)
		assert.Equal(t, "new_code", updated.Code)
		gateway.AssertExpectations(t)
	})

	t.Run("missing course", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		svc := NewService(repo, gateway, nil)

		repo.On("GetByID", mock.Anything, 99).Return(nil, ErrCourseNotFound)

		_, err := svc.Update(context.Background(), "admin-token", 99, SaveCourseRequest{
			Code: "x", Title: "X", Type: billing.CourseTypeFree,
		})
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})
}

func TestService_Pay(t *testing.T) {
	t.Run("successful purchase notifies the buyer", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		notifier := new(MockNotifier)
		svc := NewService(repo, gateway, notifier)

		expiresAt := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)
		repo.On("GetByID", mock.Anything, 1).Return(&Course{ID: 1, Code: "deep_learning", Title: "Deep Learning"}, nil)
		gateway.On("PayCourse", mock.Anything, "token-1", "deep_learning").Return(&billing.PurchaseResult{
			Success:    true,
			CourseType: billing.CourseTypeRent,
			ExpiresAt:  &expiresAt,
		}, nil)
		notifier.On("SendPurchaseConfirmation", mock.Anything, "user@example.com", "Deep Learning", billing.CourseTypeRent, &expiresAt).
			Return(nil)

		result, err := svc.Pay(context.Background(), "token-1", "user@example.com", 1)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, billing.CourseTypeRent, result.CourseType)
		notifier.AssertExpectations(t)
	})

	t.Run("insufficient funds passes through", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		svc := NewService(repo, gateway, nil)

		repo.On("GetByID", mock.Anything, 1).Return(&Course{ID: 1, Code: "expensive"}, nil)
		gateway.On("PayCourse", mock.Anything, "token-1", "expensive").
			Return(nil, &billing.RejectedError{Status: http.StatusNotAcceptable, Message: "insufficient funds"})

		_, err := svc.Pay(context.Background(), "token-1", "user@example.com", 1)

		var rejected *billing.RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusNotAcceptable, rejected.Status)
	})

	t.Run("unknown local course", func(t *testing.T) {
		repo := new(MockRepository)
		gateway := new(MockBilling)
		svc := NewService(repo, gateway, nil)

		repo.On("GetByID", mock.Anything, 42).Return(nil, ErrCourseNotFound)

		_, err := svc.Pay(context.Background(), "token-1", "user@example.com", 42)
		assert.ErrorIs(t, err, ErrCourseNotFound)
		gateway.AssertNotCalled(t, "PayCourse", mock.Anything, mock.Anything, mock.Anything)
	})
}
