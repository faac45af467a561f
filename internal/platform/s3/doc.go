// Package s3 fetches inventory documents from S3-compatible object storage.
//
// Paths of the form s3://bucket/key handed to the inventory loader are
// resolved through [Client.Fetch]. Static credentials and a custom
// endpoint make it usable with Hetzner Object Storage and other
// S3-compatible services; without them the default AWS chain is used.
package s3
