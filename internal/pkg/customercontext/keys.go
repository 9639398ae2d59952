package customercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyCustomerID    = "customer_id"
	KeyCustomerEmail = "customer_email"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
)
