// Package ec2 implements the "aws" provider on top of aws-sdk-go-v2.
//
// A session is created once per run from the shared AWS configuration.
// Credentials are checked up front and the region list comes from
// DescribeRegions unless the configuration pins it. Lifecycle verbs pass
// DryRun through to the API and a DryRunOperation reply becomes a dry-run
// result instead of an error.
package ec2
