// Package exposition renders cached user snapshots as a Prometheus text
// exposition document.
//
// The document lists every metric of the schema registry in registry order,
// each with its HELP and TYPE lines, followed by one sample per tracked user
// in configured order:
//
//	# HELP turfgame_user_zones_owned Number of zones owned
//	# TYPE turfgame_user_zones_owned gauge
//	turfgame_user_zones_owned{user="alice"} 2
//
// Users without a readable cache entry are left out of the samples but never
// fail the render. Equal cache contents always render to equal bytes.
package exposition
