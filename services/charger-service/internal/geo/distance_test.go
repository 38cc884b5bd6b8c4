package geo

import (
	"math"
	"testing"
)

func TestDistanceKM(t *testing.T) {
	// Mumbai CST to Pune station, roughly 120 km apart.
	d := DistanceKM(18.9398, 72.8355, 18.5286, 73.8745)
	if d < 100 || d > 130 {
		t.Fatalf("Mumbai-Pune distance out of range: %.1f km", d)
	}
	if got := DistanceKM(19.0760, 72.8777, 19.0760, 72.8777); got > 0.001 {
		t.Fatalf("zero distance expected, got %f", got)
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	lat, lng, radius := 19.0760, 72.8777, 25.0
	minLat, maxLat, minLng, maxLng := BoundingBox(lat, lng, radius)

	if minLat >= lat || maxLat <= lat || minLng >= lng || maxLng <= lng {
		t.Fatalf("box does not surround center: [%f %f %f %f]", minLat, maxLat, minLng, maxLng)
	}
	// A point just inside the radius due east must fall inside the box.
	eastLng := lng + radius/(111.0*math.Cos(lat*math.Pi/180))*0.99
	if eastLng > maxLng {
		t.Fatalf("eastern edge %.4f outside box max %.4f", eastLng, maxLng)
	}
}
