// Package auth guards the admin area of the site.
//
// All authentication state lives in client-held cookies signed with a key
// derived from the admin password: the session cookie proves a successful
// login and the attempts cookie carries the failed-login counter and lockout
// deadline. The server keeps no session table and no attempt table.
//
// Known limitations, accepted for a single-admin site:
//   - logout only clears the current client's cookie; a copied session token
//     stays valid until it expires.
//   - a client that discards its attempts cookie also discards its lockout.
package auth
