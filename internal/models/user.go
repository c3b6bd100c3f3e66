package models

import "time"

// GameAccount mirrors the game server's account row. It carries the
// premium balance that donations credit.
type GameAccount struct {
	ID             int       `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	AccessLevel    int       `json:"accessLevel" db:"access_level"`
	Premium        int64     `json:"premium" db:"premium"`
	Silk           int64     `json:"silk" db:"silk"`
	IsOnline       bool      `json:"isOnline" db:"is_online"`
	ReceiveWelcome bool      `json:"-" db:"receive_welcome"`
	DiscordID      int64     `json:"-" db:"discord_id"`
	CreatedAt      time.Time `json:"-" db:"created_at"`
}

// PortalUser mirrors the web portal's user row, the canonical record
// for portal login.
type PortalUser struct {
	ID          int    `json:"id" db:"id"`
	Username    string `json:"username" db:"username"`
	AccessLevel int    `json:"accessLevel" db:"access_level"`
}

// CredentialRecord is one stored (scheme, digest) pair. Scheme is a tag
// naming the hash scheme the digest was produced under; verification
// must dispatch on it, never on which store the record came from.
type CredentialRecord struct {
	UserID int
	Scheme string
	Digest string
}

// UserIdentity is the authenticated view of an account handed to the
// session issuer. The id is always the game account id.
type UserIdentity struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	AccessLevel int    `json:"accessLevel"`
}
