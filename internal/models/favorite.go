package models

import "time"

type FavoriteUserInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type CourseFavorite struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	CourseID     int              `json:"courseId"`
	CourseName   string           `json:"courseName"`
	FavoriteDate time.Time        `json:"favoriteDate"`
	UserInfo     FavoriteUserInfo `json:"userInfo"`
}
