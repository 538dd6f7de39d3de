// Package redis keeps usage ledger entries in Redis hashes so several
// application instances share one view of every identity's credits.
//
// Each identity maps to a hash holding count and window_start (unix
// milliseconds). Conditional writes run as a Lua script, and every write
// refreshes the key's TTL to the window length.
package redis
