package middlewares

const (
	ctxUserIDKey = "auth.userID"
	ctxLoginKey  = "auth.login"
	ctxRoleKey   = "auth.role"

	CtxRequestID = "request_id"
)
