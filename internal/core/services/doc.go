// Package services contains the core pipeline logic.
//
// Each service implements one driving port and depends only on driven
// ports, so every external collaborator (document source, artifact
// store, embedding service, search service) is injectable and the
// services are testable without touching disk or network.
package services
