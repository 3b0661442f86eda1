// Package pagination counts the records a domain exposes through the
// offset-paginated order endpoint.
//
// The total size of the remote collection is unknown, so the Counter walks
// it page by page (1000 records per page by default) and decides when it
// has ended from the pages themselves:
//
//   - a non-empty page shorter than the page size is the last page
//   - a full page means there may be more; the offset advances
//   - an empty page may be a transient gap; the offset advances, and three
//     consecutive empty pages end the walk
//   - any fetch error ends the walk and marks the domain as failed
//
// Pages are fetched strictly one after another, and a fixed pause schedule
// from package ratelimit runs between them.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig(token))
//	pacer := ratelimit.NewPacer(ratelimit.DefaultPolicy(), logger)
//	counter := pagination.NewCounter(c, pacer, pagination.DefaultConfig())
//	result := counter.Count(ctx, "https://shop.example")
package pagination
