package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerDevice(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "device token is required")
		return
	}
	if err := s.devices.Register(c.Request.Context(), userID(c), req.Token, req.Platform); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"registered": true})
}

func (s *Server) unregisterDevice(c *gin.Context) {
	if err := s.devices.Unregister(c.Request.Context(), userID(c), c.Param("token")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"unregistered": true})
}
