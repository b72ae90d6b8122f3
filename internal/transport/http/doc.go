// Package http implements the HTTP handlers of the dataset cleaning service.
// Handlers stay thin: they parse and validate the request, call the dataset
// service with the caller's session and format the response.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Session → Handler → DatasetService
//	                                                       ↓
//	HTTP Response ← Envelope / file ← Handler ←────────────┘
//
// # Responses
//
// Successful JSON responses use the envelope
//
//	{"success": true, "message": "Dataset uploaded successfully!", "data": {...}}
//
// Downloads are returned as attachments (cleaned_data.csv, train_dataset.csv,
// test_dataset.csv) and the profile report as text/html.
//
// # Error Handling
//
// All failures go through errors.ErrorHandler and follow RFC 7807 with the
// envelope fields added:
//
//	{
//	    "success": false,
//	    "message": "No dataset loaded!",
//	    "type": "/errors/no-dataset",
//	    "title": "Conflict",
//	    "status": 409,
//	    "error_code": "NO_DATASET_LOADED",
//	    "trace_id": "..."
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// DatasetServiceInterface.
package http
