// Package cookie reads and writes HMAC-signed cookies.
//
//	m, err := cookie.New([]string{currentSecret, previousSecret},
//		cookie.WithSameSite(http.SameSiteStrictMode),
//		cookie.WithSecure(true),
//	)
//
//	err = m.SetJSON(w, "usage", usage, cookie.WithMaxAge(7*24*60*60))
//	err = m.GetJSON(r, "usage", &usage)
//
// Listing several secrets rotates keys without invalidating cookies signed
// with an older secret.
package cookie
