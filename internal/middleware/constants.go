package middleware

// HTTP header names
const (
	HeaderAuthorization = "Authorization"
	HeaderPlayerID      = "X-Player-ID"
	HeaderSessionID     = "X-Session-ID"
	BearerPrefix        = "Bearer "
)

// SigningMethodHS256 is the only accepted token algorithm
const SigningMethodHS256 = "HS256"

// Error messages returned to clients
const (
	ErrMsgInvalidToken    = "Invalid identity token"
	ErrMsgMissingIdentity = "Player identity required"
)

// Log messages
const (
	LogMsgTokenRejected = "Identity token rejected"
)

// MaxSessionIDLength caps the session header copied into logs and analytics
const MaxSessionIDLength = 128
