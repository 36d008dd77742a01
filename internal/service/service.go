// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services never see an *http.Request. They take the acting user's id as a
// plain string ("" for anonymous callers) and return model projections or
// *apperror.AppError values that the handler layer turns into status codes.
//
// Every service depends on repository interfaces, not on *sqlite.DB, so its
// tests run against in-memory fakes.
package service
