package constants

// Application Information
const (
	AppName    = "Natours API"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "3000"
	DefaultEnvironment = EnvDevelopment
	DefaultBodyLimit   = 10 * 1024
)

// Cache Key Prefixes
const (
	CacheKeyPrefix = "natours:"
	CacheKeyTour   = CacheKeyPrefix + "tours:"
)

// Resource names used in responses, cache keys and metrics
const (
	ResourceTour   = "tour"
	ResourceUser   = "user"
	ResourceReview = "review"
)
