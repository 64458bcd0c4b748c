// Package requestid tags every request with a correlation ID that shows up in
// the X-Request-ID response header and, through LoggerExtractor, in every log
// record written with the request context.
package requestid
