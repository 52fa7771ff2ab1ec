package settings

// SettingDefaults holds the default values for all configurable settings.
// Keys absent from the settings table resolve to these values.
var SettingDefaults = map[string]interface{}{
	// Drift thresholds in percentage points. Sub-MP intentionally has no
	// hardcoded call-site value; this entry is the single default.
	"mp_threshold_percent":     3.0,
	"sub_mp_threshold_percent": 5.0,

	// Evaluation job cadence (cron expression with seconds field)
	"evaluation_schedule": "0 */15 * * * *",

	// Backup rotation: newest archives kept in the bucket
	"backup_retain": 5.0,
}

// SettingDescriptions documents each setting key for the settings API.
var SettingDescriptions = map[string]string{
	"mp_threshold_percent":     "Drift magnitude (percentage points) at which an asset-class trade is warranted",
	"sub_mp_threshold_percent": "Drift magnitude (percentage points) at which an instrument trade is warranted",
	"evaluation_schedule":      "Cron expression (with seconds) for the periodic drift evaluation job",
	"backup_retain":            "Number of newest backup archives to keep during rotation (minimum 3)",
}

// SettingUpdate is the request body for PUT /api/settings/{key}.
// Value accepts strings, numbers and booleans; everything is stored
// as a string and converted back by the typed repository getters.
type SettingUpdate struct {
	Value interface{} `json:"value"`
}

// Setting is a single key-value pair as returned by the settings API.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}
