package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/review"
)

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewResponse(rv *review.Review) reviewResponse {
	return reviewResponse{
		ID:        rv.ID,
		ProductID: rv.ProductID,
		UserID:    rv.UserID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}

func (s *Server) listReviews(c *gin.Context) {
	reviews, err := s.reviews.ForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	respond(c, http.StatusOK, out)
}

func (s *Server) reviewSummary(c *gin.Context) {
	sum, err := s.reviews.SummaryForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"productId":     c.Param("id"),
		"reviewCount":   sum.ReviewCount,
		"averageRating": sum.AverageRating,
	})
}

func (s *Server) createReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "rating is required")
		return
	}
	if _, err := s.products.GetByID(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	rv, err := s.reviews.Create(c.Request.Context(), userID(c), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, toReviewResponse(rv))
}

func (s *Server) updateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "rating is required")
		return
	}
	rv, err := s.reviews.Update(c.Request.Context(), userID(c), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, toReviewResponse(rv))
}

func (s *Server) deleteReview(c *gin.Context) {
	if err := s.reviews.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": true})
}
