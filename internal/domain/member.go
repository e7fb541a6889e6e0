package domain

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	ID       UserID
	Language Language
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(id UserID, lang Language) *Member {
	return &Member{ID: id, Language: lang}
}
