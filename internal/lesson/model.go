package lesson

import "time"

type Lesson struct {
	ID        int       `db:"id" json:"id"`
	CourseID  int       `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Number    int       `db:"number" json:"number"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SaveLessonRequest covers both create and edit.
type SaveLessonRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Number  int    `json:"number" binding:"required,gte=1,lte=10000"`
}
