package constants

// Cookie names carrying the session token pair.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
)

// Multipart form field names for media intake.
const (
	FormFieldAvatar     = "avatar"
	FormFieldCoverImage = "coverImage"
)

// Gin context keys set by the auth middleware.
const (
	GinKeyUserID   = "user_id"
	GinKeyUsername = "username"
)
