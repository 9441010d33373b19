// Package models defines the core domain models for SplitEase.
//
// # Ledger
//
// The ledger is made of two append-only record types:
//   - Expense: one identity paid an amount on behalf of a set of participants
//   - Settlement: a direct payment from one identity to another
//
// Both are immutable once written. Balances and debts are never stored; they are
// recomputed from the ledger on every query (see the calculator package).
//
// # Identities
//
// Participants, payers and settlement parties are identified by plain strings
// (friend names as entered by the client). Identities do not have to be
// registered users; the Friend registry only exists so clients can offer a
// picker.
//
// # Scope
//
// Every ledger record may belong to a Group. A Scope with an empty GroupID covers
// the whole ledger.
//
// # Money
//
// Amounts are money.Amount values in minor units. Floats never appear in the
// ledger.
package models
