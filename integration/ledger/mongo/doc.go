// Package mongo stores the authenticated usage ledger on the account record
// in a MongoDB users collection.
//
// The entry lives in the credits sub-document:
//
//	{ "_id": ObjectId(...), "credits": { "weeklyBillsGenerated": 3, "lastResetDate": ISODate(...) } }
//
// Only those two paths are ever written. A user document that does not exist
// is reported as quota.ErrUnknownIdentity.
package mongo
