package model

const RoleAdmin = "admin"

// Session is the authenticated-actor view handed to the core by the auth
// collaborator. A nil *Session means the request is unauthenticated.
type Session struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
