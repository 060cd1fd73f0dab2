package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yearbook/internal/auth"
)

func (a *api) uploadPhoto(c *gin.Context) {
	slotIndex, err := strconv.Atoi(c.Query("slot_index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot_index query parameter required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()

	// whole file in memory; matches the single-shot upload the pipeline does
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := a.photos.Upload(c.Request.Context(), auth.CurrentUser(c), slotIndex, data, contentType, header.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "photo upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"file_url":           result.FileURL,
		"profile_completion": result.ProfileCompletion,
	})
}
