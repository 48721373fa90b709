// Package model defines domain types for the budget planner.
package model

// User is the authenticated account as reported by the budget service.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Session is the active login: who the user is and the token issued for them.
type Session struct {
	User  User
	Token string
}

// Valid reports whether the session carries a usable user id.
func (s *Session) Valid() bool {
	return s != nil && s.User.ID != 0
}
