// Package services holds cross-cutting helpers shared by external-service
// adapters: the error taxonomy used to classify stage failures for retry and
// status decisions, and context carriers for entry/stage/request identifiers.
package services
