// Package cookie sets and reads HTTP cookies, optionally encrypted with
// AES-256-GCM. It carries the session token of the second-factor service.
//
//	m, err := cookie.New([]string{secret}, cookie.WithSecure(true))
//	if err != nil {
//	    return err
//	}
//	if err := m.SetEncrypted(w, "sid", token, cookie.WithMaxAge(3600)); err != nil {
//	    return err
//	}
//	token, err := m.GetEncrypted(r, "sid")
//
// Passing several secrets enables rotation: new cookies use the first one and
// cookies sealed with any of them can still be read.
package cookie
