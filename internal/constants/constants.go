package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// CacheDirPerm is the permission for cache directories.
	CacheDirPerm = 0750

	// CacheFilePerm is the permission for cache entry files.
	CacheFilePerm = 0600

	// DataDirPerm is the permission for the selections directory.
	DataDirPerm = 0750

	// DataFilePerm is the permission for selection files.
	DataFilePerm = 0600
)

// Provider endpoints.
const (
	// OpenAlexBaseURL is the public OpenAlex API root.
	OpenAlexBaseURL = "https://api.openalex.org"

	// ZoteroBaseURL is the public Zotero Web API root.
	ZoteroBaseURL = "https://api.zotero.org"

	// ZoteroAPIVersion is the Zotero-API-Version header value.
	ZoteroAPIVersion = "3"

	// DefaultUserAgent is sent when the caller does not set one.
	DefaultUserAgent = "papers-go/1.0 (+https://github.com/papers-cli/papers)"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 3

	// DefaultRetryWaitMin is the base backoff delay.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps backoff delays and provider retry hints.
	DefaultRetryWaitMax = 30 * time.Second

	// DefaultRetryJitter is the fraction a backoff delay varies by.
	DefaultRetryJitter = 0.2
)

// Client side rate limits, in requests per second.
const (
	// OpenAlexRateLimit stays under the polite pool's 10 requests per second.
	OpenAlexRateLimit = 10

	// ZoteroRateLimit keeps well clear of Zotero's request throttling.
	ZoteroRateLimit = 5

	// DefaultRateBurst is the limiter burst size.
	DefaultRateBurst = 5
)

// Pagination and display limits.
const (
	// DefaultPageSize is the default number of items per page in the CLI.
	DefaultPageSize = 10

	// MCPDefaultPageSize is the default number of items per page in MCP tools.
	MCPDefaultPageSize = 10

	// FindPostThreshold is the query length above which semantic search uses POST.
	FindPostThreshold = 2048

	// StringTruncationLength is the default length for truncating table cells.
	StringTruncationLength = 80

	// ShortDescriptionDisplayLength is the width of title columns.
	ShortDescriptionDisplayLength = 60
)

// Cache defaults.
const (
	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultNATSBucket is the JetStream key-value bucket used by the NATS cache.
	DefaultNATSBucket = "papers-cache"

	// CacheFileSuffix is the extension of disk cache entries.
	CacheFileSuffix = ".json"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)
