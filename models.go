package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountState is the lifecycle state of an account
type AccountState string

const (
	// StateUnregistered is the state of an account with no record
	StateUnregistered AccountState = "unregistered"
	// StatePendingActivation accounts registered but never activated
	StatePendingActivation AccountState = "pending_activation"
	// StateActive accounts can log in
	StateActive AccountState = "active"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Account        string     `bun:"account,notnull,unique" json:"account"`
	Email          string     `bun:"email,notnull,unique" json:"email"`
	PasswordDigest string     `bun:"password,notnull" json:"-"`
	Active         bool       `bun:"active,notnull" json:"active"`
	Admin          bool       `bun:"admin,notnull" json:"admin"`
	Name           string     `bun:"name" json:"name,omitempty"`
	Location       string     `bun:"location" json:"location,omitempty"`
	Github         string     `bun:"github" json:"github,omitempty"`
	Website        string     `bun:"website" json:"website,omitempty"`
	Profile        string     `bun:"profile" json:"profile,omitempty"`
	GameData       string     `bun:"game_data" json:"gameData,omitempty"`
	Avatar         string     `bun:"avatar" json:"avatar,omitempty"`
	AccessToken    string     `bun:"access_token" json:"accessToken,omitempty"`
	ActivatedAt    *time.Time `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// State derives the lifecycle state from the Active flag
func (u *User) State() AccountState {
	if u == nil {
		return StateUnregistered
	}
	if u.Active {
		return StateActive
	}
	return StatePendingActivation
}

// IsActive reports whether the account can log in
func (u *User) IsActive() bool {
	return u != nil && u.Active
}

// String never prints the password digest
func (u User) String() string {
	return fmt.Sprintf("user=%s account=%s email=%s active=%t admin=%t", u.ID, u.Account, u.Email, u.Active, u.Admin)
}

// ProfileView is the sanitized user payload returned to clients
type ProfileView struct {
	Account  string `json:"account"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Github   string `json:"github"`
	Website  string `json:"website"`
	Profile  string `json:"profile"`
	GameData string `json:"gameData"`
	Avatar   string `json:"avatar"`
}

// NewProfileView copies the public fields of u
func NewProfileView(u *User) ProfileView {
	if u == nil {
		return ProfileView{}
	}
	return ProfileView{
		Account:  u.Account,
		Email:    u.Email,
		Name:     u.Name,
		Location: u.Location,
		Github:   u.Github,
		Website:  u.Website,
		Profile:  u.Profile,
		GameData: u.GameData,
		Avatar:   u.Avatar,
	}
}

// Session is the server side session payload
type Session struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

// IsZero reports an empty session
func (s Session) IsZero() bool {
	return s.Token == "" && !s.IsAdmin
}
