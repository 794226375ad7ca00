// SPDX-License-Identifier: MIT

// Package safety defines the minimum-headway rules shared by all trains.
//
// Two trains at the same virtual station need a safety interval between
// their events. The interval depends on what each does there: arrive (a),
// depart (s) or pass (p). The ordered pair (leader kind, follower kind) is a
// Category; inbound nodes carry aa, ap, pa, pp and outbound nodes carry ss,
// sp, ps.
//
// Table stores intervals per station, speed class and category. Engines use
// Interval, which takes the maximum over speed classes, so the same value is
// seen regardless of which train leads.
package safety
