// Package ingest bulk-loads documents into the store.
//
// Drafts are split into batches; each batch is embedded with one provider
// call and persisted in one transaction. Batches run concurrently, and a
// failed batch is reported in the stats without aborting the rest of the run.
package ingest
