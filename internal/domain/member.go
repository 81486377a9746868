package domain

// Member represents user's participation in a group.
// No transport or lifecycle logic here.
type Member struct {
	User   Identity `json:"user"`
	Online bool     `json:"online"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user Identity, online bool) Member {
	return Member{User: user, Online: online}
}
