// Package audit records who changed what in each tenant's home.
//
// Entries are written to the audit_logs table by a Recorder that queues
// them on a bounded channel and drains them serially, so request and
// ingestion paths never block on SQLite. When the queue is full the entry
// is dropped with a warning.
package audit
