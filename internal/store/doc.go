// Package store defines the persistence interfaces for users, subjects,
// and flashcards, along with the shared error taxonomy and transaction
// helper. Implementations live in internal/platform/postgres; business
// logic depends only on the interfaces here.
package store
