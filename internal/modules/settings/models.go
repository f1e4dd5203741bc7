package settings

// Setting keys stored in config.db
const (
	KeyHomeCurrency       = "home_currency"
	KeyPolicyRateOverride = "policy_rate_override"
	KeyBackupEnabled      = "backup_enabled"
	KeyMaxOracleFanout    = "valuation_max_concurrency"
)

// SettingDefaults holds the default of every runtime-configurable setting
var SettingDefaults = map[string]interface{}{
	KeyHomeCurrency:       "TRY",
	KeyPolicyRateOverride: 0.0, // percentage; 0 means use the live feed
	KeyBackupEnabled:      0.0, // 1.0 = enabled
	KeyMaxOracleFanout:    8.0,
}

// SettingUpdate is the body of PUT /api/settings/{key}
type SettingUpdate struct {
	Value string `json:"value"`
}
