package domain

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Capability names an action guarded at the authorization boundary.
type Capability string

const (
	CapAuthorQuiz      Capability = "quiz:author"
	CapListAllQuizzes  Capability = "quiz:list-all"
	CapTakeQuiz        Capability = "quiz:take"
	CapViewResults     Capability = "results:view"
	CapViewLeaderboard Capability = "leaderboard:view"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {CapAuthorQuiz, CapListAllQuizzes, CapTakeQuiz, CapViewResults, CapViewLeaderboard},
	RoleTeacher: {
		CapAuthorQuiz,
		CapListAllQuizzes,
		CapViewResults,
		CapViewLeaderboard,
	},
	RoleStudent: {CapTakeQuiz, CapViewLeaderboard},
}

// ParseRole validates a role string from a token or user record.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := roleCapabilities[role]; !ok {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   Role
}
