// Package controller is the REST client for the SD-WAN controller.
//
// A Client is the session: it is created once, authenticated with either a
// token (UseToken) or credentials (Login), and then used for tenant lookup,
// event queries, event updates and finally Logout. Requests carry the
// X-Auth-Token header when a token is known and rely on the cookie jar for
// sessions established by Login.
package controller
