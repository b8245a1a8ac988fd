package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listFavorites(c *gin.Context) {
	l, err := s.favorites.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"productIds": l.ProductIDs})
}

func (s *Server) addFavorite(c *gin.Context) {
	// Verify the product exists before favoriting it.
	if _, err := s.products.GetByID(c.Request.Context(), c.Param("productId")); err != nil {
		respondErr(c, err)
		return
	}
	if err := s.favorites.Add(c.Request.Context(), userID(c), c.Param("productId")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"added": true})
}

func (s *Server) removeFavorite(c *gin.Context) {
	if err := s.favorites.Remove(c.Request.Context(), userID(c), c.Param("productId")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"removed": true})
}
