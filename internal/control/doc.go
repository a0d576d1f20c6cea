// Package control implements the request-style operations on a tenant's
// devices and alert limits.
//
// Every successful mutation is applied to the tenant.Store first and then
// broadcast to the tenant's live connections. It may also be exported and
// written to the audit trail. A broadcast that reaches nobody does not
// undo the mutation.
package control
