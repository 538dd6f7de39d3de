// Package bill defines bill documents (fuel receipts, rent receipts and free
// form bills), their validation rules and the storage contract for saved bills.
package bill
