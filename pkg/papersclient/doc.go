// Package papersclient is the entry point for constructing OpenAlex and
// Zotero clients that implement the interfaces defined in package papers.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/papers-cli/papers/pkg/papers"
//	  "github.com/papers-cli/papers/pkg/papersclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Polite pool: identify yourself with an email address.
//	  oa, err := papersclient.NewOpenAlexWithEmail(ctx, "me@example.org")
//	  if err != nil { log.Fatal(err) }
//	  defer oa.Close()
//
//	  page, err := oa.Works().List(ctx, &papers.ListParams{Search: "attention is all you need"})
//	  if err != nil { log.Fatal(err) }
//	  log.Println(len(page.Items), *page.TotalResults)
//
//	  // Walk every page lazily.
//	  for work, err := range oa.Works().All(ctx, &papers.ListParams{Filter: "publication_year:2024"}) {
//	    if err != nil { log.Fatal(err) }
//	    log.Println(work.ID)
//	  }
//
//	  // A Zotero user library.
//	  zc, err := papersclient.NewZoteroWithKey(ctx, "12345", "api-key")
//	  if err != nil { log.Fatal(err) }
//	  defer zc.Close()
//	}
//
// Responses are cached on disk by default. Set Config.Cache to change the
// backend or TTL, or to papers.CacheConfig{Type: papers.CacheTypeNone} to
// disable caching.
package papersclient
