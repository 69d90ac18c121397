package papers

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EntityClient is the set of operations on one entity collection.
type EntityClient[T any] interface {
	// Get fetches one entity by id. OpenAlex also accepts DOIs and other
	// external identifiers.
	Get(ctx context.Context, id string, params *GetParams) (*T, error)

	// List fetches one page.
	List(ctx context.Context, params *ListParams) (*PagedResult[T], error)

	// All lazily walks every page, starting from params. Iteration stops at the
	// first error, which is yielded once.
	All(ctx context.Context, params *ListParams) iter.Seq2[T, error]

	// Autocomplete returns typeahead suggestions or an Unsupported error
	// without contacting the provider.
	Autocomplete(ctx context.Context, query string) ([]AutocompleteResult, error)
}

// OpenAlexClient provides access to the OpenAlex entity collections.
type OpenAlexClient interface {
	Works() EntityClient[Work]
	Authors() EntityClient[Author]
	Sources() EntityClient[Source]
	Institutions() EntityClient[Institution]
	Topics() EntityClient[Topic]
	Publishers() EntityClient[Publisher]
	Funders() EntityClient[Funder]
	Domains() EntityClient[Domain]
	Fields() EntityClient[Field]
	Subfields() EntityClient[Subfield]
	Concepts() EntityClient[Concept]

	// Entity returns an untyped client for a collection by plural or singular name.
	Entity(name string) (EntityClient[json.RawMessage], error)

	// FindWorks runs a semantic search over works. Requires an API key.
	FindWorks(ctx context.Context, params *FindParams) ([]FindResult, error)
}

// ZoteroItemsClient provides access to the items of a Zotero library.
type ZoteroItemsClient interface {
	Get(ctx context.Context, key string) (*ZoteroItem, error)
	List(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroItem], error)
	All(ctx context.Context, params *ZoteroListParams) iter.Seq2[ZoteroItem, error]
	Top(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroItem], error)
	Trash(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroItem], error)
	Children(ctx context.Context, key string, params *ZoteroListParams) (*PagedResult[ZoteroItem], error)

	// Tags lists the tags of the items matching params.
	Tags(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroTag], error)

	// ItemTags lists the tags of one item.
	ItemTags(ctx context.Context, key string, params *ZoteroListParams) (*PagedResult[ZoteroTag], error)

	// Autocomplete always fails with Unsupported.
	Autocomplete(ctx context.Context, query string) ([]AutocompleteResult, error)
}

// ZoteroCollectionsClient provides access to the collections of a Zotero library.
type ZoteroCollectionsClient interface {
	Get(ctx context.Context, key string) (*ZoteroCollection, error)
	List(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroCollection], error)
	All(ctx context.Context, params *ZoteroListParams) iter.Seq2[ZoteroCollection, error]
	Top(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroCollection], error)
	Subcollections(ctx context.Context, key string, params *ZoteroListParams) (*PagedResult[ZoteroCollection], error)
	Items(ctx context.Context, key string, params *ZoteroListParams) (*PagedResult[ZoteroItem], error)
	TopItems(ctx context.Context, key string, params *ZoteroListParams) (*PagedResult[ZoteroItem], error)
}

// ZoteroClient provides read access to one Zotero user or group library.
type ZoteroClient interface {
	Items() ZoteroItemsClient
	Collections() ZoteroCollectionsClient
	Tags(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroTag], error)
	Searches(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroSearch], error)
	Groups(ctx context.Context, params *ZoteroListParams) (*PagedResult[ZoteroGroup], error)
	KeyInfo(ctx context.Context) (*ZoteroKeyInfo, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an OpenAlex or Zotero client.
//
// # Credentials
//
// APIKey is the only credential. OpenAlex sends it as the api_key query
// parameter and Email as mailto, which places requests in the polite pool.
// Zotero sends it as the Zotero-API-Key header. Credentials are resolved by
// the caller once; the clients never read the environment.
//
// # Timeouts and retries
//
// Timeout bounds every attempt. Network failures, 429 and 5xx responses are
// retried up to MaxAttempts times in total with exponential backoff between
// RetryWaitMin and RetryWaitMax, or the provider's Retry-After hint.
type Config struct {
	// BaseURL overrides the provider root, e.g. for testing. Empty uses the public API.
	BaseURL string

	// APIKey is the optional credential.
	APIKey string

	// Email is the OpenAlex polite pool contact address.
	Email string

	// UserID selects a Zotero user library. Required for Zotero unless GroupID is set.
	UserID string

	// GroupID selects a Zotero group library instead of a user library.
	GroupID string

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// RetryWaitMin is the base backoff delay.
	RetryWaitMin time.Duration

	// RetryWaitMax caps backoff delays and provider retry hints.
	RetryWaitMax time.Duration

	// RateLimit is the client side request rate per second. Zero uses the
	// provider default, negative disables limiting.
	RateLimit float64

	// RateBurst is the limiter burst size.
	RateBurst int

	// Logger receives diagnostic output. Nil discards it.
	Logger Logger

	// Debug logs every request and response.
	Debug bool

	// Cache configures response caching. Nil disables it.
	Cache *CacheConfig

	// Metrics registers pipeline metrics when non-nil.
	Metrics prometheus.Registerer

	// HTTPClient replaces the pooled transport client.
	HTTPClient *http.Client
}
