package common

// Storage keys. The names match the browser-era schema so that exported
// documents remain interchangeable.
const (
	UsersKey            = "runreward-users"
	RegistrationsKey    = "runreward-course-registrations"
	FavoritesKey        = "runreward-course-favorites"
	CurrentUserKey      = "runreward-current-user"
	CoursesKey          = "runreward-courses"
	ExternalDatabaseKey = "runreward-external-database"
	RateLimitKeyPrefix  = "rate_limit_"
)
