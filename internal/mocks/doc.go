// Package mocks provides test doubles for the review service, the token
// verifier and the store interfaces.
//
// MockReviewService and MockTokenVerifier use function fields so handler tests can script one
// behavior per case. The store mocks are built on testify's mock.Mock so
// service tests can assert the exact calls made.
package mocks
