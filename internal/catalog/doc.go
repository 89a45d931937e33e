// Package catalog turns the awesome-selfhosted markdown list into Application
// records, decides which of them look deployable with Docker, and serves them
// through a cache-backed Service.
//
// The pipeline is:
//
//	Source.Fetch -> Parser.Parse (Classify + Heuristic per line) -> cache.Store.Save
//
// and reads go through Catalog, an immutable snapshot with search helpers.
package catalog
