package lesson

import (
	"context"

	"studyon/internal/course"
)

type Service interface {
	ListByCourse(ctx context.Context, courseID int) ([]Lesson, error)
	Get(ctx context.Context, id int) (*Lesson, error)
	Create(ctx context.Context, courseID int, req SaveLessonRequest) (*Lesson, error)
	Update(ctx context.Context, id int, req SaveLessonRequest) (*Lesson, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo    Repository
	courses course.Repository
}

func NewService(repo Repository, courses course.Repository) Service {
	return &service{repo: repo, courses: courses}
}

func (s *service) ListByCourse(ctx context.Context, courseID int) ([]Lesson, error) {
	// Курс должен существовать, иначе 404 вместо пустого списка
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.GetByCourse(ctx, courseID)
}

func (s *service) Get(ctx context.Context, id int) (*Lesson, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, courseID int, req SaveLessonRequest) (*Lesson, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, courseID, req.Title, req.Content, req.Number)
}

func (s *service) Update(ctx context.Context, id int, req SaveLessonRequest) (*Lesson, error) {
	return s.repo.Update(ctx, id, req.Title, req.Content, req.Number)
}

func (s *service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
