package rbac

import "errors"

// Error taxonomy for the admin API. Handlers map these to HTTP statuses:
// 401, 403, 404 and 400 respectively; anything else is a store failure and
// surfaces as a 500 with a generic message.
var (
	ErrUnauthenticated  = errors.New("no authenticated identity")
	ErrPermissionDenied = errors.New("insufficient permissions")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
)
