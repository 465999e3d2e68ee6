// Package internal contains the core infrastructure for the ctxnav engine.
// This includes logging, localized texts and the CA trust store used by remote
// metadata providers. Types and functions in this package are not part of the public API.
package internal

import _ "github.com/BrandonKowalski/certifiable" // Add CA certificates to the default trust store
