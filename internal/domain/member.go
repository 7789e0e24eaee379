package domain

import "time"

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Username string
	Profile  Profile
	JoinedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(username string, profile Profile) (*Member, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return &Member{Username: name, Profile: profile, JoinedAt: time.Now()}, nil
}
