package lesson

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyon/internal/api"
	"studyon/internal/course"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      List lessons of a course
// @Tags         lessons
// @Produce      json
// @Security     SessionCookie
// @Param        courseID path int true "Course ID"
// @Success      200 {array} lesson.Lesson
// @Failure      404 {object} api.ErrorResponse
// @Router       /courses/{courseID}/lessons [get]
func (h *Handler) ListByCourse(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid course ID"})
		return
	}

	lessons, err := h.service.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to list lessons"})
		return
	}

	c.JSON(http.StatusOK, lessons)
}

// @Summary      Show a lesson
// @Tags         lessons
// @Produce      json
// @Security     SessionCookie
// @Param        lessonID path int true "Lesson ID"
// @Success      200 {object} lesson.Lesson
// @Failure      404 {object} api.ErrorResponse
// @Router       /lessons/{lessonID} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("lessonID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid lesson ID"})
		return
	}

	lesson, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch lesson"})
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// @Summary      Create a lesson
// @Description  Super-admin only.
// @Tags         admin,lessons
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        courseID path int true "Course ID"
// @Param        request body lesson.SaveLessonRequest true "Lesson payload"
// @Success      201 {object} lesson.Lesson
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/courses/{courseID}/lessons [post]
func (h *Handler) Create(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid course ID"})
		return
	}

	var req SaveLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondValidationError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), courseID, req)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create lesson"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// @Summary      Edit a lesson
// @Tags         admin,lessons
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        lessonID path int true "Lesson ID"
// @Param        request body lesson.SaveLessonRequest true "Lesson payload"
// @Success      200 {object} lesson.Lesson
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/lessons/{lessonID} [put]
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("lessonID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid lesson ID"})
		return
	}

	var req SaveLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update lesson"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete a lesson
// @Tags         admin,lessons
// @Security     SessionCookie
// @Param        lessonID path int true "Lesson ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/lessons/{lessonID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("lessonID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid lesson ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to delete lesson"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Lesson deleted"})
}
