// Package provider defines the provider-neutral contract that every cloud
// backend implements, together with the normalized state codes, the action
// vocabulary and the error taxonomy shared by the orchestration kernel.
//
// A backend registers a Factory under its provider tag (for example "aws" or
// "hcloud"). The Factory returns a Client, which knows the regions it serves
// and can Connect to one of them. The resulting RegionClient performs the
// describe and lifecycle verbs for a set of instance IDs.
//
// State codes are fixed integers independent of any vendor:
//
//	pending=0 running=16 shutting-down=32 terminated=48 stopping=64 stopped=80
//
// Lifecycle verbs return a tri-state Result instead of signalling a dry run
// through an error. Failures are always *Error values carrying a Kind.
package provider
