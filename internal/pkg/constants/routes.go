package constants

// Static route constants
const (
	PublicRoute          = "/"
	LoginRoute           = "/login"
	RegisterRoute        = "/register"
	ConnectRoute         = "/connect/x"
	ConnectCallbackRoute = "/connect/x/callback"
	DisconnectRoute      = "/connect/x/disconnect"
	SettingsRoute        = "/settings"
	RepliesRoute         = "/replies"
	AnalyticsRoute       = "/analytics"
	// API prefix without version for middleware matching
	APIPrefix = "/api/"
)
