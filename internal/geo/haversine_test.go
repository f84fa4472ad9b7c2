package geo

import (
	"testing"

	"github.com/runreward/runreward/internal/models"
	"github.com/stretchr/testify/assert"
)

var (
	paris  = models.Coordinates{Lat: 48.8566, Lng: 2.3522}
	lyon   = models.Coordinates{Lat: 45.7640, Lng: 4.8357}
	geneva = models.Coordinates{Lat: 46.2044, Lng: 6.1432}
)

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 392, HaversineKm(paris, lyon), 2)
	assert.InDelta(t, 112, HaversineKm(lyon, geneva), 2)
}

func TestHaversineKm_Properties(t *testing.T) {
	assert.Zero(t, HaversineKm(paris, paris))
	assert.InDelta(t, HaversineKm(paris, geneva), HaversineKm(geneva, paris), 1e-9)

	// half the circumference between antipodes
	assert.InDelta(t, 20015.09, HaversineKm(models.Coordinates{Lat: 0, Lng: 0}, models.Coordinates{Lat: 0, Lng: 180}), 0.01)
}
