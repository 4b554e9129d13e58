// Package errs defines the error shapes that flow through the HTTP layer.
//
// Handlers return *HTTPError values (or any other error). The global error
// handler classifies whatever it receives into an Outcome, the formatter turns
// a Failure into a Payload, and the Payload is what the client finally sees.
//
//   - HTTPError: the typed failure handlers return.
//   - Detail: one field-level validation failure.
//   - Outcome: Success or Failure, the formatter's input.
//   - Payload: the uniform JSON body written for every failure.
package errs
