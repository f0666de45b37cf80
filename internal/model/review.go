package model

// Review is one user's rating of one tour; a user reviews a tour at most once.
type Review struct {
	Model
	Review string  `gorm:"column:review;type:text;not null" json:"review"`
	Rating float64 `gorm:"column:rating;not null" json:"rating"`
	TourID uint    `gorm:"column:tour_id;not null;uniqueIndex:idx_reviews_tour_user,priority:1" json:"tour"`
	UserID uint    `gorm:"column:user_id;not null;index;uniqueIndex:idx_reviews_tour_user,priority:2" json:"userId"`
	Tour   *Tour   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User   *User   `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
