// Package app wires the bill generation API.
//
// Config is read from the environment. Bootstrap connects the configured
// ledger and bill store backends and returns a Runtime whose App serves:
//
//	GET    /api/credits             current weekly usage
//	POST   /api/credits             spend one credit
//	GET    /api/templates           registered bill templates
//	POST   /api/render              render an unsaved bill (free)
//	GET    /api/bills               list the caller's bills
//	POST   /api/bills               save a bill, spending one credit
//	GET    /api/bills/{id}          fetch a bill
//	PUT    /api/bills/{id}          replace a bill
//	DELETE /api/bills/{id}          delete a bill
//	GET    /api/bills/{id}/render   render a saved bill
//	GET    /api/tools/qrcode        PNG QR code for ?text=
//
// along with /live, /ready and /metrics.
//
// Anonymous callers are tracked in a signed cookie; callers presenting a
// bearer token are tracked per account in the ledger backend.
package app
