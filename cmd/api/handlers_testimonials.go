package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"yearbook/internal/auth"
	"yearbook/internal/model"
	"yearbook/internal/testimonial"
)

type testimonialRequest struct {
	ToStudentID string `json:"to_student_id" binding:"required"`
	Text        string `json:"text" binding:"required"`
}

func (a *api) createTestimonial(c *gin.Context) {
	var req testimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := a.testimonials.Write(c.Request.Context(), auth.CurrentUser(c), req.ToStudentID, req.Text)
	if err != nil {
		a.testimonialError(c, err, result.WordCount)
		return
	}

	message := "Testimonial created"
	if result.Updated {
		message = "Testimonial updated"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "word_count": result.WordCount})
}

func (a *api) receivedTestimonials(c *gin.Context) {
	a.listTestimonials(c, a.testimonials.Received, auth.CurrentUser(c).ID)
}

func (a *api) writtenTestimonials(c *gin.Context) {
	a.listTestimonials(c, a.testimonials.Written, auth.CurrentUser(c).ID)
}

func (a *api) studentTestimonials(c *gin.Context) {
	a.listTestimonials(c, a.testimonials.Received, c.Param("id"))
}

func (a *api) listTestimonials(c *gin.Context, list func(ctx context.Context, id string) ([]*model.Testimonial, error), id string) {
	testimonials, err := list(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list testimonials failed"})
		return
	}
	if testimonials == nil {
		testimonials = []*model.Testimonial{}
	}
	c.JSON(http.StatusOK, testimonials)
}

type testimonialPatch struct {
	Text *string `json:"text"`
}

func (a *api) adminUpdateTestimonial(c *gin.Context) {
	var patch testimonialPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wordCount, err := a.testimonials.AdminUpdate(c.Request.Context(), c.Param("from"), c.Param("to"), patch.Text)
	if err != nil {
		a.testimonialError(c, err, wordCount)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Testimonial updated"})
}

func (a *api) adminDeleteTestimonial(c *gin.Context) {
	err := a.testimonials.AdminDelete(c.Request.Context(), c.Param("from"), c.Param("to"))
	if err != nil {
		if errors.Is(err, testimonial.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Testimonial not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Testimonial deleted"})
}

func (a *api) testimonialError(c *gin.Context, err error, wordCount int) {
	switch {
	case errors.Is(err, testimonial.ErrTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(
			"Testimonial exceeds %d words limit (%d words)", testimonial.MaxWords, wordCount)})
	case errors.Is(err, testimonial.ErrEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Testimonial cannot be empty"})
	case errors.Is(err, testimonial.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
	case errors.Is(err, testimonial.ErrCrossCollege):
		c.JSON(http.StatusForbidden, gin.H{"error": "Can only write testimonials for students in your college"})
	case errors.Is(err, testimonial.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Testimonial not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "testimonial write failed"})
	}
}
