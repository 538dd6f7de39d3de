// Package mongo implements bill.Repository over a single MongoDB bills
// collection, using billType as the discriminator between fuel, rent and
// generic documents.
package mongo
