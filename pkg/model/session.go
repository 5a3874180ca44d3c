package model

// Session is the persisted identity of the signed-in user.
// An empty field is absent.
type Session struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	DisplayName string `json:"nombre,omitempty"`
	Token       string `json:"-"` // bearer token (not exposed via JSON)
}

// Complete reports whether the session carries the fields a logged-in user must have.
func (s Session) Complete() bool {
	return s.UserID != "" && s.Role != "" && s.Token != ""
}

// Empty reports whether no field is set.
func (s Session) Empty() bool {
	return s == Session{}
}
