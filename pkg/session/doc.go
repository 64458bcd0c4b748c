// Package session keeps server-side session state behind an encrypted cookie
// token.
//
// A Manager combines a Transport (CookieTransport by default) with a Store
// (MemoryStore or RedisStore). The primary login binds an account with
// Manager.Authenticate, which rotates the token and drops the data of a
// previous account. Scope adapts a request's session to a plain key/value
// interface and starts the session lazily on the first write:
//
//	manager := session.New(session.WithCookieManager(cookies))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    scope := manager.Scope(w, r)
//	    if err := scope.Set(r.Context(), "key", "value"); err != nil {
//	        // the session could not be started or saved
//	    }
//	}
//
// Middleware loads the session into the request context once so scopes and
// AccountIDFromContext can reuse it.
package session
