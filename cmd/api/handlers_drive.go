package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yearbook/internal/auth"
	"yearbook/internal/drive"
)

func (a *api) driveConnect(c *gin.Context) {
	user := auth.CurrentUser(c)
	authURL, err := a.drive.AuthCodeURL(user.ID)
	if err != nil {
		// configuration problems come back as an error payload, not a failure
		if errors.Is(err, drive.ErrNotConfigured) {
			c.JSON(http.StatusOK, gin.H{"error": "Google Drive not configured. Please set up Google OAuth credentials."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorization_url": authURL})
}

func (a *api) driveCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and state are required"})
		return
	}

	cred, err := a.drive.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred.UserID = state
	if err := a.creds.Upsert(c.Request.Context(), cred); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Drive connected",
		"redirect": a.cfg.FrontendURL() + "/dashboard?drive_connected=true",
	})
}
