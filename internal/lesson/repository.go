package lesson

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrLessonNotFound = errors.New("lesson not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, courseID int, title, content string, number int) (*Lesson, error) {
	query := `
		INSERT INTO lessons (course_id, title, content, number)
		VALUES ($1, $2, $3, $4)
		RETURNING id, course_id, title, content, number, created_at, updated_at
	`

	var lesson Lesson
	err := r.db.GetContext(ctx, &lesson, query, courseID, title, content, number)
	if err != nil {
		return nil, err
	}

	return &lesson, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Lesson, error) {
	query := `
		SELECT id, course_id, title, content, number, created_at, updated_at
		FROM lessons
		WHERE id = $1
	`

	var lesson Lesson
	err := r.db.GetContext(ctx, &lesson, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}

	return &lesson, nil
}

func (r *repository) GetByCourse(ctx context.Context, courseID int) ([]Lesson, error) {
	query := `
		SELECT id, course_id, title, content, number, created_at, updated_at
		FROM lessons
		WHERE course_id = $1
		ORDER BY number ASC
	`

	var lessons []Lesson
	err := r.db.SelectContext(ctx, &lessons, query, courseID)
	if err != nil {
		return nil, err
	}

	return lessons, nil
}

func (r *repository) Update(ctx context.Context, id int, title, content string, number int) (*Lesson, error) {
	query := `
		UPDATE lessons
		SET title = $1, content = $2, number = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, course_id, title, content, number, created_at, updated_at
	`

	var lesson Lesson
	err := r.db.GetContext(ctx, &lesson, query, title, content, number, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}

	return &lesson, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLessonNotFound
	}

	return nil
}
