package course

import "context"

type Repository interface {
	Create(ctx context.Context, code, title, description string) (*Course, error)
	GetByID(ctx context.Context, id int) (*Course, error)
	GetByCode(ctx context.Context, code string) (*Course, error)
	GetAll(ctx context.Context) ([]Course, error)
	Update(ctx context.Context, id int, code, title, description string) (*Course, error)
	Delete(ctx context.Context, id int) error
	CodeExists(ctx context.Context, code string) (bool, error)
}
