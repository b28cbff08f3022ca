package domain

// GuardResult is the outcome of a protective check (rate limiting, lockout).
type GuardResult struct {
	Allowed bool
	Reason  string
	Guard   string
}
