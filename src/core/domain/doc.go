// Package domain contains the core domain model for the Q&A donation store.
//
// This package defines:
//   - Entities: Question, Answer and Donation
//   - Index kinds: the derived answersOf / donationsOf buckets
//   - Domain Errors: not found, invariant violation, duplicate id, validation
//
// Rules for this package:
//   - No external dependencies except the standard library
//   - No infrastructure concerns (database, HTTP, etc.)
//   - Entities are append-only; only TotalAnswer and TotalAmountDonated change after creation
//
// Example:
//
//	q := domain.NewQuestion(id, "T", "C", "alice", now)
//	// q.TotalAnswer == 0, q.TotalVote == 0
//
//	if err := domain.ValidateDonationAmount(amount); err != nil {
//	    return nil, err
//	}
package domain
