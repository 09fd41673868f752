package dto

// GeometryPayload is the raw GeoJSON-style polygon accepted by the
// validation endpoints. Coordinates are [longitude, latitude] pairs, the
// first ring is the exterior, any further rings are holes.
type GeometryPayload struct {
	Type        string        `json:"type" validate:"required"`
	Coordinates [][][]float64 `json:"coordinates" validate:"required,min=1"`
	CRS         string        `json:"crs,omitempty"`
}

// FreshnessResponse reports the last ingestion time per reference layer.
type FreshnessResponse struct {
	Layers map[string]string `json:"layers"`
}
