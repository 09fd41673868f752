package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of reference-layer checks a validation runs.
type Category string

const (
	CategoryDeforestationAlert  Category = "deforestation_alert"
	CategoryConservationUnit    Category = "conservation_unit"
	CategoryIndigenousTerritory Category = "indigenous_territory"
	CategoryWaterBuffer         Category = "water_buffer"
	CategoryEmbargo             Category = "embargo"
	CategoryQuilombola          Category = "quilombola"
)

// Categories returns every check category in the fixed order results are
// emitted in. The order is part of the engine contract: re-running a
// validation with the same inputs and layer versions yields checks in the
// same positions.
func Categories() []Category {
	return []Category{
		CategoryDeforestationAlert,
		CategoryConservationUnit,
		CategoryIndigenousTerritory,
		CategoryWaterBuffer,
		CategoryEmbargo,
		CategoryQuilombola,
	}
}

// LayerType maps a category onto the layer_type key of the reference
// dataset that answers it. The keys follow the source datasets loaded by
// the ingestion pipeline.
func (c Category) LayerType() string {
	switch c {
	case CategoryDeforestationAlert:
		return "prodes"
	case CategoryConservationUnit:
		return "uc"
	case CategoryIndigenousTerritory:
		return "terra_indigena"
	case CategoryWaterBuffer:
		return "hidrografia"
	case CategoryEmbargo:
		return "embargo_ibama"
	case CategoryQuilombola:
		return "quilombola"
	}
	return ""
}

func (c Category) Valid() bool {
	return c.LayerType() != ""
}

// CheckState distinguishes a clean pass from a missing answer. An
// unavailable layer is never reported as "no overlap".
type CheckState string

const (
	CheckStateClear       CheckState = "clear"
	CheckStateOverlap     CheckState = "overlap"
	CheckStateUnavailable CheckState = "unavailable"
)

type Status string

const (
	StatusApproved Status = "approved"
	StatusWarning  Status = "warning"
	StatusRejected Status = "rejected"
)

// FeatureMatch is one reference feature intersecting (or within buffer
// distance of) the submitted parcel.
type FeatureMatch struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	OverlapHa  float64        `json:"overlap_ha,omitempty"`
	DistanceM  float64        `json:"distance_m,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// LayerVersion is the immutable snapshot identifier of one reference
// dataset, stamped on every check for audit reproducibility.
type LayerVersion struct {
	LayerType   string     `db:"layer_type" json:"layer_type"`
	Version     string     `db:"version" json:"version"`
	SourceDate  *time.Time `db:"source_date" json:"source_date,omitempty"`
	RecordCount int64      `db:"record_count" json:"record_count"`
	IngestedAt  time.Time  `db:"ingested_at" json:"ingested_at"`
}

// CheckResult is the immutable outcome of a single category check.
type CheckResult struct {
	Category     Category       `json:"category"`
	State        CheckState     `json:"state"`
	Overlap      bool           `json:"overlap"`
	OverlapHa    float64        `json:"overlap_ha,omitempty"`
	OverlapPct   float64        `json:"overlap_pct,omitempty"`
	DistanceM    *float64       `json:"distance_m,omitempty"`
	Features     []FeatureMatch `json:"features,omitempty"`
	Weight       int            `json:"weight"`
	Critical     bool           `json:"critical,omitempty"`
	LayerVersion string         `json:"layer_version,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// ValidationRecord is the persisted unit of one validation request.
// Immutable after creation; audit queries read it as written.
type ValidationRecord struct {
	ID            uuid.UUID               `json:"id"`
	Geometry      json.RawMessage         `json:"geometry"`
	AreaHa        float64                 `json:"area_ha"`
	LayerVersions map[string]LayerVersion `json:"layer_versions"`
	Checks        []CheckResult           `json:"checks"`
	Score         float64                 `json:"score"`
	Status        Status                  `json:"status"`
	Degraded      bool                    `json:"degraded"`
	SubmittedAt   time.Time               `json:"submitted_at"`
	CompletedAt   time.Time               `json:"completed_at"`
	DurationMs    int64                   `json:"duration_ms"`
}

// ValidationSummary is the admin listing projection of a record.
type ValidationSummary struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Status      Status    `db:"status" json:"status"`
	Score       float64   `db:"score" json:"score"`
	Degraded    bool      `db:"degraded" json:"degraded"`
	AreaHa      float64   `db:"area_ha" json:"area_ha"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	DurationMs  int64     `db:"duration_ms" json:"duration_ms"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
}
