package constants

import "time"

const (
	DefaultTitle = "Watch Party Schedule"
	QRSize       = 72
	DefaultPort  = "8080"
)

const (
	FetchTimeout    = 10 * time.Second
	RenderTimeout   = 30 * time.Second
	DatabaseTimeout = 5 * time.Second
	LogoCacheTTL    = 10 * time.Minute
	LogoCacheSize   = 512
)

const (
	MaxImageBytes  = 10 << 20
	MaxImagePixels = 25_000_000

	MaxCommandsBytes = 1 << 20
)

const (
	UpcomingWindow  = 48 * time.Hour
	UpcomingPerPage = 100
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	SubscriberBuffer = 16
	ShutdownTimeout  = 5 * time.Second
)
