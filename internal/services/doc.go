// Package services implements the business logic layer of dscleaner.
//
// DatasetService runs every cleaning operation (upload, missing-data
// handling, duplicate and outlier removal, train/test split, export and
// profiling) against a session.Session. Each call takes the session lock,
// works on a copy of the session state and commits it only on success, so a
// failed operation leaves the client's dataset untouched.
//
// Failures are returned as *errors.AppError values classified as
// UNSUPPORTED_FORMAT, NO_DATASET_LOADED, INVALID_ARGUMENT, NOT_FOUND or
// PROCESSING. Panics inside an operation are recovered and reported as
// PROCESSING.
//
// HealthService backs the /api/health endpoints.
package services
