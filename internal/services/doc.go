// Package services holds the error taxonomy and context helpers shared by
// every pipeline collaborator.
//
// Stage code wraps failures with services.Wrap so the orchestrator can record
// a stage-attributed message on the job and the API can classify the failure
// (validation vs. not-found vs. external tool). Context helpers carry job and
// stage identifiers so loggers tag lines consistently without plumbing extra
// arguments through each collaborator.
package services
