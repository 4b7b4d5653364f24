// Package format defines the fixed-offset wire layouts shared by every RVF
// component: the Level 0 tail page, per-segment headers, and the TLV framing
// used by the RVQS download manifest. Nothing in this package touches a file
// handle; it only marshals and unmarshals byte slices.
package format
