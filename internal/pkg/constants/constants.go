package constants

// Viper keys. Values come from environment variables or an optional yaml
// file, see internal/pkg/config.
const (
	ViperListenAddr    = "listen_addr"
	ViperDatabaseURL   = "database_url"
	ViperDebug         = "debug"
	ViperAPIKey        = "api_key"
	ViperSecretKey     = "secret_key"
	ViperAllowedOrigin = "allowed_origin"

	ViperMaxVertices = "geometry.max_vertices"
	ViperMaxAreaHa   = "geometry.max_area_ha"
	ViperBBoxMinLon  = "geometry.bbox_min_lon"
	ViperBBoxMinLat  = "geometry.bbox_min_lat"
	ViperBBoxMaxLon  = "geometry.bbox_max_lon"
	ViperBBoxMaxLat  = "geometry.bbox_max_lat"

	ViperWarningThreshold   = "risk.warning_threshold"
	ViperRejectedThreshold  = "risk.rejected_threshold"
	ViperUnavailablePenalty = "risk.unavailable_penalty"
	ViperWeightPrefix       = "risk.weight."

	ViperBufferWaterMeters = "checks.buffer_water_meters"
	ViperCheckTimeout      = "checks.timeout"
	ViperLayerMaxAge       = "checks.layer_max_age"
	ViperMaxFeatures       = "checks.max_features"
	ViperAlertCutoffDate   = "checks.alert_cutoff_date"
)

const (
	HeaderAPIKey         = "x-api-key"
	CookieKeySecretToken = "admin_token"
)
