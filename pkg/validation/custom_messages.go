package validation

// customValidationMessages is keyed by "<Struct>.<jsonField>", then rule tag.
var customValidationMessages = map[string]map[string]string{
	"SignupRequest.name": {
		"required": "Please tell us your name!",
	},
	"SignupRequest.email": {
		"required": "Please provide your email",
		"email":    "Please provide a valid email",
	},
	"SignupRequest.password": {
		"required": "Please provide a password",
		"min":      "A password must have at least 8 characters",
	},
	"SignupRequest.passwordConfirm": {
		"required": "Please confirm your password",
		"eqfield":  "Passwords are not the same!",
	},
	"ResetPasswordRequest.passwordConfirm": {
		"eqfield": "Passwords are not the same!",
	},
	"UpdatePasswordRequest.passwordConfirm": {
		"eqfield": "Passwords are not the same!",
	},
	"CreateTourRequest.name": {
		"required": "A tour must have a name",
		"min":      "A tour name must have more or equal then 10 characters",
		"max":      "A tour name must have less or equal then 40 characters",
	},
	"UpdateTourRequest.name": {
		"min": "A tour name must have more or equal then 10 characters",
		"max": "A tour name must have less or equal then 40 characters",
	},
	"CreateTourRequest.duration": {
		"required": "A tour must have a duration",
	},
	"CreateTourRequest.maxGroupSize": {
		"required": "A tour must have a group size",
	},
	"CreateTourRequest.difficulty": {
		"required": "A tour must have a difficulty",
		"oneof":    "Difficulty is either: easy, medium, difficult",
	},
	"UpdateTourRequest.difficulty": {
		"oneof": "Difficulty is either: easy, medium, difficult",
	},
	"CreateTourRequest.ratingsAverage": {
		"gte": "Rating must be above 1.0",
		"lte": "Rating must be below 5.0",
	},
	"CreateTourRequest.price": {
		"required": "A tour must have a price",
	},
	"CreateTourRequest.priceDiscount": {
		"ltfield": "Discount price should be below regular price",
	},
	"CreateTourRequest.summary": {
		"required": "A tour must have a description",
	},
	"CreateTourRequest.imageCover": {
		"required": "A tour must have a cover image",
	},
	"CreateReviewRequest.review": {
		"required": "Review can not be empty!",
	},
	"CreateReviewRequest.rating": {
		"gte": "Rating must be above 1.0",
		"lte": "Rating must be below 5.0",
	},
	"UpdateReviewRequest.rating": {
		"gte": "Rating must be above 1.0",
		"lte": "Rating must be below 5.0",
	},
}

// CustomMessage returns the messages for one DTO field, or nil.
func CustomMessage(field string) map[string]string {
	return customValidationMessages[field]
}
