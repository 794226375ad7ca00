// SPDX-License-Identifier: MIT

// Package fleet holds the Train record: identity, speed class, preferred
// departure, route, stops, the time-expanded graph and the event kind the
// train produces at each virtual station it visits.
package fleet
