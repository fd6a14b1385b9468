// Package core provides the lookup engine behind recfind.
//
// It is independent of any UI or transport layer and is used by the CLI,
// the interactive shell and the web server alike.
//
// # Searching
//
// A [Service] takes a raw query, decides once what kind of query it is with
// a [Classifier], then scans every available dataset in configuration order:
//
//	svc, err := core.NewService(catalog, core.WithWorkers(4))
//	outcome, err := svc.Search(ctx, "+7 916 123-45-67")
//	for _, d := range outcome.Datasets {
//	    fmt.Println(d.Name, len(d.Rows))
//	}
//
// The [Outcome] lists only datasets with at least one match. Datasets that
// could not be read are reported in Outcome.Failures and never abort the
// search.
//
// # Matching
//
// Phone queries are compared after [NormalizePhone], email queries by
// substring, and name queries by whole tokens in any order. [SearchFields]
// decides which fields of a row are tested; [Project] shapes a matching row
// for display.
//
// # Streaming
//
// [Scan] reads a dataset row by row through [NewDatasetReader], which
// decodes the configured encoding and removes a byte order mark. Memory use
// is bounded by the per-dataset cap, not the file size.
package core
