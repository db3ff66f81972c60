// Package turf is a minimal client for the Turf game users API.
//
// The API takes a JSON array of {"name": "..."} objects in one POST and
// answers with an array of user objects. Users that do not exist are left out
// of the response rather than reported as errors.
//
//	client, err := turf.NewClient(turf.Config{
//	    URL:       turf.DefaultURL,
//	    UserAgent: "turfgame-exporter/1.0 (+https://example.org)",
//	})
//	records, err := client.FetchUsers(ctx, []string{"alice", "bob"})
//
// Every failure is one of *TransportError, *StatusError or *DecodeError and
// matches ErrUpstream with errors.Is. The client never retries.
package turf
