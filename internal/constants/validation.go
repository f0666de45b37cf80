package constants

// Field Length Limits
const (
	MinPasswordLength = 8
	MaxPasswordLength = 100
	MinTourNameLength = 10
	MaxTourNameLength = 40
	MinRating         = 1
	MaxRating         = 5
)

// BcryptCost is the work factor for stored passwords.
const BcryptCost = 12

// Tour defaults
const (
	DefaultRatingsAverage = 4.5
	StatsMinRating        = 4.5
	DefaultUserPhoto      = "default.jpg"
)
