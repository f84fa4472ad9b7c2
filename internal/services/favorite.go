package services

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/runreward/runreward/internal/models"
)

// AddToFavorites records courseID as a favorite of the current user. It
// reports false when nobody is signed in or the favorite already exists.
func (s *UserService) AddToFavorites(ctx context.Context, courseID int, courseName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.currentUser(ctx)
	if err != nil || u == nil {
		return false, err
	}

	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return false, err
	}
	if slices.ContainsFunc(favs, func(f models.CourseFavorite) bool {
		return f.UserID == u.ID && f.CourseID == courseID
	}) {
		return false, nil
	}

	favs = append(favs, models.CourseFavorite{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		CourseID:     courseID,
		CourseName:   courseName,
		FavoriteDate: s.now().UTC(),
		UserInfo: models.FavoriteUserInfo{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		},
	})
	if err := save(ctx, s.favorites, favs, s.metrics); err != nil {
		return false, err
	}

	s.metrics.RecordFavorite("added")
	s.log.Info(ctx, "favorite added", "user", u.ID, "course", courseID)
	return true, nil
}

// RemoveFromFavorites reports false when nobody is signed in or the course
// was not a favorite.
func (s *UserService) RemoveFromFavorites(ctx context.Context, courseID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false, nil
	}
	userID := s.current.UserID

	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return false, err
	}
	kept := slices.DeleteFunc(slices.Clone(favs), func(f models.CourseFavorite) bool {
		return f.UserID == userID && f.CourseID == courseID
	})
	if len(kept) == len(favs) {
		return false, nil
	}

	if err := save(ctx, s.favorites, kept, s.metrics); err != nil {
		return false, err
	}

	s.metrics.RecordFavorite("removed")
	s.log.Info(ctx, "favorite removed", "user", userID, "course", courseID)
	return true, nil
}

// IsFavorite is false when nobody is signed in.
func (s *UserService) IsFavorite(ctx context.Context, courseID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false, nil
	}
	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return false, err
	}
	return slices.Contains(favoriteIDs(favs, s.current.UserID), courseID), nil
}

// GetUserFavorites returns the current user's favorites, empty when nobody
// is signed in.
func (s *UserService) GetUserFavorites(ctx context.Context) ([]models.CourseFavorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.CourseFavorite{}
	if s.current == nil {
		return out, nil
	}
	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return nil, err
	}
	for _, f := range favs {
		if f.UserID == s.current.UserID {
			out = append(out, f)
		}
	}
	return out, nil
}

// GetAllFavorites returns every user's favorites.
func (s *UserService) GetAllFavorites(ctx context.Context) ([]models.CourseFavorite, error) {
	return load(ctx, s.favorites, s.metrics)
}

// GetFavoritesStats counts favorites per course id.
func (s *UserService) GetFavoritesStats(ctx context.Context) (map[int]int, error) {
	favs, err := load(ctx, s.favorites, s.metrics)
	if err != nil {
		return nil, err
	}
	stats := make(map[int]int)
	for _, f := range favs {
		stats[f.CourseID]++
	}
	return stats, nil
}
