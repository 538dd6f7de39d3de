// Package jwt issues and verifies HMAC-SHA256 signed JSON Web Tokens.
//
// It is a thin layer over github.com/lestrrat-go/jwx that fixes the
// algorithm, enforces a minimum key length and validates the temporal
// claims (exp, nbf, iat) on every parse.
//
//	svc, err := jwt.NewFromString(os.Getenv("JWT_SIGNING_KEY"))
//	if err != nil {
//		return err
//	}
//
//	token, err := svc.Generate(jwt.StandardClaims{Subject: "user123", TTL: time.Hour})
//
//	claims, err := svc.Parse(token)
//	userID := claims.Subject
package jwt
