package models

// User is an identity record. The current session owns at most one User;
// everything else is referenced read-only from the directory or the
// known-users registry.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	// Code is a short unique code fabricated at login time.
	Code     string `json:"code,omitempty"`
	IsOnline bool   `json:"is_online"`
	IsAgent  bool   `json:"is_agent,omitempty"`
}
