package constants

import "time"

// HTTP Header Names
const (
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderXRequestID      = "X-Request-ID"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXForwardedProto = "X-Forwarded-Proto"
)

// Token transport
const (
	BearerPrefix       = "Bearer "
	AuthCookieName     = "jwt"
	LoggedOutCookie    = "loggedout"
	LoggedOutCookieTTL = 10 * time.Second
)

// Common HTTP Error Messages
const (
	MsgNotLoggedIn        = "You are not logged in! Please log in to get access."
	MsgInvalidToken       = "Invalid token. Please log in again!"
	MsgTokenExpired       = "Your token has expired! Please log in again."
	MsgUserGone           = "The user belonging to this token does no longer exist."
	MsgPasswordChanged    = "User recently changed password! Please log in again."
	MsgForbidden          = "You do not have permission to perform this action"
	MsgRouteNotFound      = "Can't find %s on this server!"
	MsgTooManyRequests    = "Too many requests from this IP, please try again in an hour!"
	MsgSomethingWentWrong = "Something went very wrong!"
	MsgServiceUnavailable = "Service temporarily unavailable"
	MsgRequestTooLarge    = "Request body too large"
)
