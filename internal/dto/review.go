package dto

import "strings"

type CreateReviewRequest struct {
	Review string  `json:"review" binding:"required"`
	Rating float64 `json:"rating" binding:"required,gte=1,lte=5"`
	Tour   uint    `json:"tour"`
}

type UpdateReviewRequest struct {
	Review *string  `json:"review" binding:"omitempty,min=1"`
	Rating *float64 `json:"rating" binding:"omitempty,gte=1,lte=5"`
}

func (r *UpdateReviewRequest) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if r.Review != nil {
		changes["review"] = strings.TrimSpace(*r.Review)
	}
	if r.Rating != nil {
		changes["rating"] = *r.Rating
	}
	return changes
}
