package course

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyon/internal/api"
	"studyon/internal/session"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func currentToken(c *gin.Context) string {
	if sess, ok := session.FromContext(c); ok {
		return sess.AccessToken
	}
	return ""
}

// @Summary      List courses
// @Description  Local catalog joined with billing prices; purchase state for logged-in callers.
// @Tags         courses
// @Produce      json
// @Success      200 {array} course.View
// @Failure      503 {object} api.ErrorResponse
// @Router       /courses [get]
func (h *Handler) List(c *gin.Context) {
	views, err := h.service.List(c.Request.Context(), currentToken(c))
	if err != nil {
		api.RespondBillingError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Summary      Show one course
// @Tags         courses
// @Produce      json
// @Param        courseID path int true "Course ID"
// @Success      200 {object} course.View
// @Failure      404 {object} api.ErrorResponse
// @Router       /courses/{courseID} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid course ID"})
		return
	}

	view, err := h.service.Get(c.Request.Context(), id, currentToken(c))
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Course not found"})
			return
		}
		api.RespondBillingError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary      Create a course
// @Description  Super-admin only. The course is registered with billing before it is stored locally.
// @Tags         admin,courses
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        request body course.SaveCourseRequest true "Course payload"
// @Success      201 {object} course.Course
// @Failure      400 {object} api.FieldErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/courses [post]
func (h *Handler) Create(c *gin.Context) {
	var req SaveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondValidationError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), currentToken(c), req)
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: ErrCodeTaken.Error()})
			return
		}
		api.RespondBillingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// @Summary      Edit a course
// @Tags         admin,courses
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        courseID path int true "Course ID"
// @Param        request body course.SaveCourseRequest true "Course payload"
// @Success      200 {object} course.Course
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/courses/{courseID} [put]
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid course ID"})
		return
	}

	var req SaveCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondValidationError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), currentToken(c), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCourseNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Course not found"})
		case errors.Is(err, ErrCodeTaken):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: ErrCodeTaken.Error()})
		default:
			api.RespondBillingError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete a course
// @Description  Removes the local record only; billing history stays.
// @Tags         admin,courses
// @Security     SessionCookie
// @Param        courseID path int true "Course ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/courses/{courseID} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid course ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to delete course"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Course deleted"})
}

// @Summary      Buy or rent a course
// @Tags         courses
// @Produce      json
// @Security     SessionCookie
// @Param        courseID path int true "Course ID"
// @Success      200 {object} course.PayResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      406 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /courses/{courseID}/pay [post]
func (h *Handler) Pay(c *gin.Context) {
	sess, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := strconv.Atoi(c.Param("courseID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid course ID"})
		return
	}

	result, err := h.service.Pay(c.Request.Context(), sess.AccessToken, sess.Username, id)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Course not found"})
			return
		}
		api.RespondBillingError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
