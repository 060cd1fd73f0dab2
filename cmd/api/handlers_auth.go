package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yearbook/internal/auth"
	"yearbook/internal/model"
	"yearbook/internal/roster"
)

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FullName  string `json:"full_name" binding:"required"`
	UserType  string `json:"user_type"`
	CollegeID string `json:"college_id"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *api) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.roster.Register(c.Request.Context(), req.Email, req.Password, req.FullName, req.UserType, req.CollegeID)
	if err != nil {
		if errors.Is(err, roster.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	a.issueToken(c, http.StatusOK, user)
}

func (a *api) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.roster.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, roster.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	a.issueToken(c, http.StatusOK, user)
}

func (a *api) issueToken(c *gin.Context, status int, user *model.User) {
	token, _, err := auth.Issue(user.ID, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(status, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user_type":    user.UserType,
		"user_data":    user,
	})
}
