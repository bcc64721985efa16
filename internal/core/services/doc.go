// Package services contains the core pipeline logic: the extraction
// cascade, routing engine, plan validator, approval gate, apply/skip
// executor and the orchestrator tying them together.
package services
