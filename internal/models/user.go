package models

import (
	"slices"
	"time"
)

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserPending   UserStatus = "pending"
	UserCompleted UserStatus = "completed"
)

// RaceSnapshot is the copy of a course a user selected when registering.
type RaceSnapshot struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Distance string `json:"distance"`
	Reward   string `json:"reward"`
	Type     string `json:"type"`
}

// User is an account. FavoriteCourses is filled from the favorites
// collection on read and never written with the user record.
type User struct {
	ID              string        `json:"id"`
	FirstName       string        `json:"firstName"`
	LastName        string        `json:"lastName"`
	Email           string        `json:"email"`
	PasswordHash    string        `json:"passwordHash"`
	Address         string        `json:"address"`
	City            string        `json:"city"`
	PostalCode      string        `json:"postalCode"`
	BirthDate       string        `json:"birthDate"`
	Gender          string        `json:"gender"`
	ShoeSize        string        `json:"shoeSize"`
	InscriptionDate time.Time     `json:"inscriptionDate"`
	Status          UserStatus    `json:"status"`
	SelectedRace    *RaceSnapshot `json:"selectedRace,omitempty"`
	FavoriteCourses []int         `json:"-"`
}

func (u User) Clone() User {
	if u.SelectedRace != nil {
		r := *u.SelectedRace
		u.SelectedRace = &r
	}
	u.FavoriteCourses = slices.Clone(u.FavoriteCourses)
	return u
}

// Contact is the snapshot copied onto a registration.
func (u User) Contact() ContactInfo {
	return ContactInfo{
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Address:    u.Address,
		City:       u.City,
		PostalCode: u.PostalCode,
		BirthDate:  u.BirthDate,
		Gender:     u.Gender,
		ShoeSize:   u.ShoeSize,
	}
}

// NewUser is the sign-up form. Password is plaintext and only ever hashed.
type NewUser struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Address    string
	City       string
	PostalCode string
	BirthDate  string
	Gender     string
	ShoeSize   string
}

// UserPatch is a partial update; nil fields are left untouched. Password is
// plaintext and re-hashed by the store.
type UserPatch struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Password     *string
	Address      *string
	City         *string
	PostalCode   *string
	BirthDate    *string
	Gender       *string
	ShoeSize     *string
	Status       *UserStatus
	SelectedRace *RaceSnapshot
}

// Apply merges every field of p except Password into u.
func (p UserPatch) Apply(u *User) {
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Email, p.Email)
	set(&u.Address, p.Address)
	set(&u.City, p.City)
	set(&u.PostalCode, p.PostalCode)
	set(&u.BirthDate, p.BirthDate)
	set(&u.Gender, p.Gender)
	set(&u.ShoeSize, p.ShoeSize)
	set(&u.Status, p.Status)
	if p.SelectedRace != nil {
		r := *p.SelectedRace
		u.SelectedRace = &r
	}
}

type ContactInfo struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	BirthDate  string `json:"birthDate"`
	Gender     string `json:"gender"`
	ShoeSize   string `json:"shoeSize"`
}

// Session is an authenticated user plus the signed token persisted for it.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}
