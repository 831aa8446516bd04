// Package report is the structured record of one generation
// transition: what was created, removed or backed up, and how each
// on-change hook fared. Collaborators consume it as text or XML.
package report

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// HookResult records one on-change hook invocation.
type HookResult struct {
	Target   string
	Command  string
	ExitCode int
	Err      error
}

// Failed reports whether the hook did not complete successfully.
func (h HookResult) Failed() bool {
	return h.Err != nil || h.ExitCode != 0
}

// Report is the outcome of a transition.
type Report struct {
	// Generation is the incoming generation number.
	Generation int

	// DryRun marks a transition where nothing was mutated.
	DryRun bool

	// Created are live targets newly linked or relinked.
	Created []string

	// Removed are live targets cleaned up from the outgoing
	// generation.
	Removed []string

	// BackedUp are live files moved aside before linking.
	BackedUp []string

	// Skipped are live targets that already matched, or that a foreign
	// owner reclaimed.
	Skipped []string

	// Hooks are the on-change hook invocations, in execution order.
	Hooks []HookResult
}

// HookFailures returns the hooks that did not succeed.
func (r *Report) HookFailures() []HookResult {
	var failed []HookResult
	for _, h := range r.Hooks {
		if h.Failed() {
			failed = append(failed, h)
		}
	}
	return failed
}

// Success reports whether the transition completed with every hook
// succeeding.
func (r *Report) Success() bool {
	return len(r.HookFailures()) == 0
}

// Summary returns a one-line accounting of the transition.
func (r *Report) Summary() string {
	return fmt.Sprintf("generation %d: %d created, %d removed, %d backed up, %d skipped, %d hooks (%d failed)",
		r.Generation, len(r.Created), len(r.Removed), len(r.BackedUp),
		len(r.Skipped), len(r.Hooks), len(r.HookFailures()))
}

// XML serializes the report for machine consumers.
func (r *Report) XML() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("transition")
	root.CreateAttr("generation", strconv.Itoa(r.Generation))
	root.CreateAttr("dryRun", strconv.FormatBool(r.DryRun))
	root.CreateAttr("success", strconv.FormatBool(r.Success()))

	addTargets := func(name string, targets []string) {
		parent := root.CreateElement(name)
		for _, target := range targets {
			parent.CreateElement("target").SetText(target)
		}
	}
	addTargets("created", r.Created)
	addTargets("removed", r.Removed)
	addTargets("backedUp", r.BackedUp)
	addTargets("skipped", r.Skipped)

	hooks := root.CreateElement("hooks")
	for _, h := range r.Hooks {
		el := hooks.CreateElement("hook")
		el.CreateAttr("target", h.Target)
		el.CreateAttr("exitCode", strconv.Itoa(h.ExitCode))
		if h.Err != nil {
			el.CreateAttr("error", h.Err.Error())
		}
		el.SetText(h.Command)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
