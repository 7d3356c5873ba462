package session

import "github.com/courspresso/courspresso-web/internal/models"

type Decision int

const (
	// DecisionPending means the session has not been resolved yet; render nothing.
	DecisionPending Decision = iota
	DecisionLogin
	DecisionUnauthorized
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionLogin:
		return "login"
	case DecisionUnauthorized:
		return "unauthorized"
	case DecisionAllow:
		return "allow"
	}
	return "pending"
}

// Evaluate is the route gate. It never performs I/O.
func Evaluate(state State, role models.Role, allowed []models.Role) Decision {
	switch state {
	case StateAnonymous:
		return DecisionLogin
	case StateAuthenticated:
		for _, r := range allowed {
			if r == role {
				return DecisionAllow
			}
		}
		return DecisionUnauthorized
	}
	return DecisionPending
}
