// Package schema holds the fixed metric vocabulary of the exporter.
//
// Each MetricDefinition maps a Turf API user field to an exposed metric name,
// a Prometheus type and a help text. The Registry keeps the definitions in a
// fixed order; that order is the order of metric families in the /metrics
// document.
//
// Two upstream fields, zones and medals, are arrays. They are flagged as
// collections and the pipeline stores their length rather than their content.
package schema
