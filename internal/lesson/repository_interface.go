package lesson

import "context"

type Repository interface {
	Create(ctx context.Context, courseID int, title, content string, number int) (*Lesson, error)
	GetByID(ctx context.Context, id int) (*Lesson, error)
	GetByCourse(ctx context.Context, courseID int) ([]Lesson, error)
	Update(ctx context.Context, id int, title, content string, number int) (*Lesson, error)
	Delete(ctx context.Context, id int) error
}
