package auth

import "errors"

var (
	InvalidCredentialsErr = errors.New("invalid credentials")
	AccountUnavailableErr = errors.New("account unavailable")
	SessionNotValidErr    = errors.New("session not valid")
	RoleNotAllowedErr     = errors.New("role not allowed")
)
