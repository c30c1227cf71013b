// Package sensor feeds synthetic usage into the metering engine from the
// kernel's interface byte counters.
//
// The sensor polls /proc/net/dev on a fixed interval, sums the receive
// counters of the configured interfaces, and reports the delta since the
// previous poll as Social-category consumption. It is a best-effort demo
// feed: consumption rejections (locked, inactive, insufficient balance)
// are ignored and the next poll simply tries again.
package sensor
