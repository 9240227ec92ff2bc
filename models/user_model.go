package models

type User struct {
	ID           string   `json:"id" bson:"_id,omitempty"`
	Name         string   `json:"name" bson:"name"`
	Email        string   `json:"email" bson:"email"`
	PasswordHash string   `json:"-" bson:"password,omitempty"`
	Image        string   `json:"image" bson:"image"`
	Places       []string `json:"places" bson:"places"` // IDs of owned places, in creation order
}

// HasPlace reports whether placeID is in the user's place list.
func (u User) HasPlace(placeID string) bool {
	for _, id := range u.Places {
		if id == placeID {
			return true
		}
	}
	return false
}
