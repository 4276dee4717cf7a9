package domain

// Geographic coordinates (longitude, latitude). The zero value means
// "not geocoded yet".
type Coordinates struct {
	Lon float64
	Lat float64
}

// IsZero reports whether the coordinates are unset.
func (c Coordinates) IsZero() bool { return c.Lon == 0 && c.Lat == 0 }

// CoordsToList returns [lon, lat], the order routing APIs expect.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }
