// Package ingest turns sensor messages from the MQTT broker into stored
// readings, alert transitions and tenant broadcasts.
//
// Each message moves through Received, Decoded, Addressed, Stored,
// Evaluated and Broadcast. A payload that does not decode, or a topic that
// does not name a provisioned tenant and series, is discarded: it is
// counted and logged, and nothing is stored or broadcast. There is no
// retry and no dead-letter queue.
package ingest
