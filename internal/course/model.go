package course

import "time"

// Course is the locally persisted part of a course: content lives here,
// pricing lives in the billing service.
type Course struct {
	ID          int       `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// View is a course merged with its billing data and, for an authenticated
// caller, their purchase state.
type View struct {
	Course
	Type      string     `json:"type"`
	Price     float64    `json:"price"`
	Purchased bool       `json:"purchased"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type SaveCourseRequest struct {
	Code        string  `json:"code" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Type        string  `json:"type" binding:"required,oneof=free rent buy"`
	Price       float64 `json:"price" binding:"gte=0"`
}

type PayResponse struct {
	Success    bool       `json:"success"`
	CourseType string     `json:"course_type"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
