package schema

const (
	ROLE_STUDENT = "student"
	ROLE_FACULTY = "faculty"
	ROLE_ADMIN   = "admin"
)

// User is the identity snapshot attached to a session and embedded in
// requests as the submitter summary. Read-only from the client's perspective.
type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	School string `json:"school"`
}

// IsAdmin decides which request scope the portal exposes to this identity.
func (u User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// Registration is the payload for creating a portal account.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	School   string `json:"school"`
}
