// Package lbserver builds the HTTP application a load-balanced endpoint
// serves. User routes come in as a (method, path) registry collected at
// build time; the factory adds bearer-token extraction, health, and
// request metrics around them.
package lbserver
