package models

// Owner is embedded by every entity record.
type Owner struct {
	UserID string `json:"user_id"`
}

func (o Owner) OwnerID() string { return o.UserID }

// SetOwnerID replaces the stored owner, e.g. with its trimmed form.
func (o *Owner) SetOwnerID(id string) { o.UserID = id }
