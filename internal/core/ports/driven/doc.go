// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: document/chunk/vocabulary persistence with LRA eviction
//
// # Optional Interfaces
//
// These degrade gracefully when nil:
//
//   - Generator: downstream answer generation
//   - OCRService: scanned-page fallback when extraction fails
package driven
