package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yearbook/internal/auth"
	"yearbook/internal/model"
	"yearbook/internal/roster"
)

func (a *api) getProfile(c *gin.Context) {
	user := auth.CurrentUser(c)
	college, pct, err := a.roster.ProfileView(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":               user,
		"college":            college,
		"profile_completion": pct,
	})
}

func (a *api) updateProfile(c *gin.Context) {
	var patch roster.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pct, err := a.roster.UpdateProfile(c.Request.Context(), auth.CurrentUser(c), patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile_completion": pct})
}

type answersRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

func (a *api) updateYearbookAnswers(c *gin.Context) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pct, err := a.roster.UpdateAnswers(c.Request.Context(), auth.CurrentUser(c), req.Answers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "answers update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile_completion": pct})
}

func (a *api) collegeStudents(c *gin.Context) {
	peers, err := a.roster.CollegePeers(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list students failed"})
		return
	}
	if peers == nil {
		peers = []*model.User{}
	}
	c.JSON(http.StatusOK, peers)
}
