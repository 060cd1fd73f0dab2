package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"yearbook/internal/model"
	"yearbook/internal/roster"
)

type collegeRequest struct {
	Name              string   `json:"name" binding:"required"`
	YearbookQuestions []string `json:"yearbook_questions" binding:"required"`
	PhotoSlots        int      `json:"photo_slots"`
}

func (a *api) createCollege(c *gin.Context) {
	var req collegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	college, err := a.roster.CreateCollege(c.Request.Context(), req.Name, req.YearbookQuestions, req.PhotoSlots)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create college failed"})
		return
	}
	c.JSON(http.StatusOK, college)
}

func (a *api) listColleges(c *gin.Context) {
	colleges, err := a.roster.ListColleges(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list colleges failed"})
		return
	}
	if colleges == nil {
		colleges = []*model.College{}
	}
	c.JSON(http.StatusOK, colleges)
}

type bulkUploadRequest struct {
	CollegeID string           `json:"college_id" binding:"required"`
	Students  []roster.BulkRow `json:"students"`
}

func (a *api) bulkUploadStudents(c *gin.Context) {
	var req bulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := a.roster.BulkCreate(c.Request.Context(), req.CollegeID, req.Students)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrCollegeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "College not found"})
		case errors.Is(err, roster.ErrNoStudents):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No students provided for upload"})
		case errors.Is(err, roster.ErrNoRowsCreated):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(
				"No students created. %d students were skipped due to validation errors or duplicates.", result.Skipped)})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "bulk upload failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"created_count": len(result.Created), "students": result.Created})
}

func (a *api) listStudents(c *gin.Context) {
	students, err := a.roster.ListStudents(c.Request.Context(), c.Query("college_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list students failed"})
		return
	}
	if students == nil {
		students = []*model.User{}
	}
	c.JSON(http.StatusOK, students)
}

func (a *api) studentDetail(c *gin.Context) {
	student, college, err := a.roster.StudentDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "student lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student, "college": college})
}

func (a *api) updateStudent(c *gin.Context) {
	var patch roster.StudentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := a.roster.UpdateStudent(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		case errors.Is(err, roster.ErrNoValidFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Student updated successfully"})
}

func (a *api) deleteStudent(c *gin.Context) {
	err := a.roster.DeleteStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Student deleted successfully"})
}
