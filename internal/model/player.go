package model

type PlayerStatus string

const (
	PlayerReady    PlayerStatus = "ready"
	PlayerNotReady PlayerStatus = "not_ready"
)

// SessionPlayer is a participant entry of a session, unique by UserID.
type SessionPlayer struct {
	UserID string       `json:"userId" bson:"userId"`
	Status PlayerStatus `json:"status" bson:"status"`
}

// Identity is what the engine knows about a user: an id and a display name.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
