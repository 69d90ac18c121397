// Package papers defines the public types and interfaces of the OpenAlex and
// Zotero clients: entity and Zotero resource types, list parameters, paged
// results, the endpoint capability table and the error taxonomy.
//
// Every failure returned by a client is an *Error carrying an ErrorKind.
// Compare kinds with errors.Is against the sentinels:
//
//	if errors.Is(err, papers.ErrRateLimited) { ... }
//	if papers.IsNotFound(err) { ... }
//
// Clients are built by package papersclient.
package papers
