package main

import (
	"github.com/gin-gonic/gin"

	"yearbook/internal/auth"
	"yearbook/internal/config"
	"yearbook/internal/drive"
	"yearbook/internal/model"
	"yearbook/internal/photo"
	"yearbook/internal/roster"
	"yearbook/internal/testimonial"
)

// api holds the request handlers' dependencies. Constructed once in main and
// torn down with the process.
type api struct {
	cfg          config.App
	users        *roster.Repository
	roster       *roster.Service
	testimonials *testimonial.Service
	photos       *photo.Service
	drive        *drive.Client
	creds        *drive.CredentialRepository
}

// routes mounts every endpoint under /api. requireUser is the bearer-token
// middleware; role checks are layered per route.
func (a *api) routes(r *gin.Engine, requireUser gin.HandlerFunc) {
	root := r.Group("/api")

	root.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Yearbook Management API"})
	})

	root.POST("/auth/register", a.register)
	root.POST("/auth/login", a.login)

	// The OAuth provider redirects the browser here; no bearer token travels
	// with it, so identity rides in the state parameter instead.
	root.GET("/drive/callback", a.driveCallback)

	authed := root.Group("", requireUser)

	admin := func(msg string) gin.HandlerFunc { return auth.RequireRole(model.RoleAdmin, msg) }
	student := func(msg string) gin.HandlerFunc { return auth.RequireRole(model.RoleStudent, msg) }

	authed.POST("/colleges", admin("Only admins can create colleges"), a.createCollege)
	authed.GET("/colleges", a.listColleges)

	authed.POST("/students/bulk-upload", admin("Only admins can upload students"), a.bulkUploadStudents)
	authed.GET("/students", admin("Only admins can view all students"), a.listStudents)
	authed.GET("/students/:id", admin("Only admins can view student details"), a.studentDetail)
	authed.PUT("/students/:id", admin("Only admins can update students"), a.updateStudent)
	authed.DELETE("/students/:id", admin("Only admins can delete students"), a.deleteStudent)
	authed.GET("/students/:id/testimonials", admin("Only admins can view student testimonials"), a.studentTestimonials)

	authed.GET("/profile", a.getProfile)
	authed.PUT("/profile", student("Only students can update profiles"), a.updateProfile)
	authed.PUT("/yearbook-answers", student("Only students can update yearbook answers"), a.updateYearbookAnswers)
	authed.GET("/college/students", student("Only students can view college students"), a.collegeStudents)

	authed.POST("/testimonials", student("Only students can create testimonials"), a.createTestimonial)
	authed.GET("/testimonials/received", student("Only students can view testimonials"), a.receivedTestimonials)
	authed.GET("/testimonials/written", student("Only students can view testimonials"), a.writtenTestimonials)
	authed.PUT("/testimonials/:from/:to", admin("Only admins can update testimonials"), a.adminUpdateTestimonial)
	authed.DELETE("/testimonials/:from/:to", admin("Only admins can delete testimonials"), a.adminDeleteTestimonial)

	authed.GET("/drive/connect", a.driveConnect)
	authed.POST("/photos/upload", student("Only students can upload photos"), a.uploadPhoto)
}
