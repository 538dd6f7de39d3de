// Package response builds handler.Response values for JSON, HTML (templ),
// text and binary bodies, and renders errors as structured HTTPError values.
//
//	func getCredits(ctx handler.Context) handler.Response {
//		snap, err := svc.Peek(ctx, id)
//		if err != nil {
//			return response.Error(response.ErrStorageUnavailable.WithError(err))
//		}
//		return response.JSON(snap)
//	}
//
// Errors returned from a Response reach the adapter's error handler.
// JSONErrorHandler converts any error into an HTTPError: HTTPError values pass
// through, errors with a StatusCode() method keep their status, everything
// else becomes a 500 without the cause.
package response
