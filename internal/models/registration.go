package models

import (
	"maps"
	"time"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

type CourseRegistration struct {
	ID               string             `json:"id"`
	UserID           string             `json:"userId"`
	CourseID         int                `json:"courseId"`
	CourseName       string             `json:"courseName"`
	RegistrationDate time.Time          `json:"registrationDate"`
	UserInfo         ContactInfo        `json:"userInfo"`
	CustomFields     map[string]string  `json:"customFields,omitempty"`
	Status           RegistrationStatus `json:"status"`
}

func (r CourseRegistration) Clone() CourseRegistration {
	r.CustomFields = maps.Clone(r.CustomFields)
	return r
}

// CourseStats aggregates the registrations and favorites of one course.
type CourseStats struct {
	CourseID               int                  `json:"courseId"`
	CourseName             string               `json:"courseName"`
	TotalRegistrations     int                  `json:"totalRegistrations"`
	ConfirmedRegistrations int                  `json:"confirmedRegistrations"`
	PendingRegistrations   int                  `json:"pendingRegistrations"`
	CancelledRegistrations int                  `json:"cancelledRegistrations"`
	TotalFavorites         int                  `json:"totalFavorites"`
	Registrations          []CourseRegistration `json:"registrations"`
}
