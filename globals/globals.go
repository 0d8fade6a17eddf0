package globals

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"

// AuthCookie carries the session token for browser dashboards.
const AuthCookie = "lsbms_token"
