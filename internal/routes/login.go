package routes

import (
	"crypto/subtle"
	"log"

	"shelfadmin/internal/auth"
	"shelfadmin/internal/config"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Pdf   string `json:"pdf,omitempty"`
}

type loginRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func LoginRoutes(r *gin.Engine, cfg *config.Config, codec auth.Codec) {
	r.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(401, ErrorResponse{Error: "Invalid credentials"})
			return
		}

		// both fields compared unconditionally, one combined verdict
		userOk := subtle.ConstantTimeCompare([]byte(req.User), []byte(cfg.AdminUser))
		passOk := subtle.ConstantTimeCompare([]byte(req.Pass), []byte(cfg.AdminPass))
		if userOk&passOk != 1 {
			c.JSON(401, ErrorResponse{Error: "Invalid credentials"})
			return
		}

		token, err := codec.Mint(req.User)
		if err != nil {
			log.Printf("codec.Mint(req.User) %+v", err)
			c.JSON(500, ErrorResponse{Error: "Server error"})
			return
		}

		c.JSON(200, loginResponse{Token: token})
	})
}
