// Package version carries the ETL version string stamped onto every
// atomic event as v_etl.
package version

// Version identifies this build of the enricher for the v_etl field.
const Version = "datenstrom-go-0.1.0"
