// Package orchestration is the lifecycle kernel of shepherd.
//
// Hosts resolved from the inventory are grouped into cohorts, one per
// provider and region. The [Dispatcher] walks providers and regions in
// sorted order, builds a [Cohort] for each and asks it to take the
// requested action. When the action has a convergence target and polling
// was requested, the [Poller] re-describes every cohort at a fixed
// interval until no instance deviates from its target or the iteration
// budget runs out.
//
// # Usage
//
//	run := &orchestration.RunContext{Opts: opts, Out: os.Stdout, Log: log}
//	summary, err := orchestration.Execute(ctx, run, registry, hosts, provider.ActionStart)
//
// The first error by sorted provider and region order aborts the run.
// Side effects on cohorts processed before it are not rolled back.
package orchestration
