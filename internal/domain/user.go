package domain

// AssociatedUser is the shop staff member an online access token was granted
// for. Offline sessions never carry one.
type AssociatedUser struct {
	ID            int64  `json:"id" bson:"id"`
	FirstName     string `json:"first_name" bson:"first_name"`
	LastName      string `json:"last_name" bson:"last_name"`
	Email         string `json:"email" bson:"email"`
	EmailVerified bool   `json:"email_verified" bson:"email_verified"`
	AccountOwner  bool   `json:"account_owner" bson:"account_owner"`
	Locale        string `json:"locale" bson:"locale"`
	Collaborator  bool   `json:"collaborator" bson:"collaborator"`
}
