// Package services implements the driving ports on top of the driven ones.
//
// The request path is FeatureDeriver -> Predictor for labels and
// Retriever -> Composer for explanations, with Assessor combining both for
// the API. Indexer fetches and chunks PubMed abstracts and embeds them
// into the evidence store offline. HistoryService and SettingsService are
// thin wrappers over the query log and config store.
//
// Services never touch files, HTTP or SQL directly; those live behind the
// driven ports.
package services
