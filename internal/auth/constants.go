package auth

const (
	ContextKeyUserID        = "user_id"
	ContextKeyWalletAddress = "wallet_address"

	headerAuthorization = "Authorization"

	bearerScheme    = "bearer"
	authHeaderParts = 2
)

const (
	msgMissingAuthorization    = "missing authorization token"
	msgInvalidOrExpiredToken   = "invalid or expired token"
	msgUserNotAuthenticated    = "user not authenticated"
	msgWalletNotFound          = "user wallet address not found"
	msgInvalidWalletAddress    = "invalid wallet address in token"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
	msgSignatureInvalidHex     = "signature is not valid hex: %w"
	msgSignatureLength         = "signature must be %d bytes, got %d"
)
