// Package seed implements the RVQS (QR Cognitive Seed) bootstrap of spec
// §4.7: parsing and mandatory-signature verification of a printed or
// streamed payload no larger than one QR code, Brotli decompression of the
// embedded microkernel, and a host-polled progressive layer fetcher that
// grows a minimal store into a fully materialized one without ever blocking
// the caller on a background download.
package seed
