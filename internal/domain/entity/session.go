package entity

// Session is the authenticated author context, injected explicitly into editor operations.
type Session struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"compOfUser"`
	Token     string `json:"-"` // forwarded to the backend as bearer token
}

// Caller identifies who a backend call is made for. It is attached to every request
// for auth and recorded in the audit log.
type Caller struct {
	Token         string
	DocumentGroup string
	Actor         string
}

// Caller returns the backend caller for this session.
func (s Session) Caller(group string) Caller {
	return Caller{Token: s.Token, DocumentGroup: group, Actor: s.UserID}
}
