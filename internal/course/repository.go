package course

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrCourseNotFound = errors.New("course not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, code, title, description string) (*Course, error) {
	query := `
		INSERT INTO courses (code, title, description)
		VALUES ($1, $2, $3)
		RETURNING id, code, title, description, created_at, updated_at
	`

	var course Course
	err := r.db.GetContext(ctx, &course, query, code, title, description)
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Course, error) {
	query := `
		SELECT id, code, title, description, created_at, updated_at
		FROM courses
		WHERE id = $1
	`

	var course Course
	err := r.db.GetContext(ctx, &course, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Course, error) {
	query := `
		SELECT id, code, title, description, created_at, updated_at
		FROM courses
		WHERE code = $1
	`

	var course Course
	err := r.db.GetContext(ctx, &course, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Course, error) {
	query := `
		SELECT id, code, title, description, created_at, updated_at
		FROM courses
		ORDER BY id ASC
	`

	var courses []Course
	err := r.db.SelectContext(ctx, &courses, query)
	if err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *repository) Update(ctx context.Context, id int, code, title, description string) (*Course, error) {
	query := `
		UPDATE courses
		SET code = $1, title = $2, description = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, code, title, description, created_at, updated_at
	`

	var course Course
	err := r.db.GetContext(ctx, &course, query, code, title, description, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE code = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, code)
	if err != nil {
		return false, err
	}

	return exists, nil
}
