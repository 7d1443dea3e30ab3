package models

// Service is one entry of the studio's service catalog. DurationHours is
// the whole-hour span the service occupies on the grid (1 or 2).
type Service struct {
	Code          string `yaml:"code" json:"code"`
	Name          string `yaml:"name" json:"name"`
	DurationHours int    `yaml:"duration_hours" json:"duration_hours"`
}
