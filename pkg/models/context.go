package models

// WorkflowContext identifies the user on whose behalf a workflow action
// runs, plus the capabilities granted to the calling credential.
type WorkflowContext struct {
	UserID             string   `json:"user_id" validate:"required"`
	UserEmail          string   `json:"user_email,omitempty"`
	UserName           string   `json:"user_name,omitempty"`
	ServiceAccountID   string   `json:"service_account_id,omitempty"`
	ServiceAccountName string   `json:"service_account_name,omitempty"`
	Permissions        []string `json:"permissions,omitempty"`
}

// HasPermission reports whether the context carries the capability. An
// empty permission list means unrestricted (first-party callers).
func (c WorkflowContext) HasPermission(permission string) bool {
	if len(c.Permissions) == 0 {
		return true
	}

	for _, p := range c.Permissions {
		if p == permission || p == "*" {
			return true
		}
	}

	return false
}
