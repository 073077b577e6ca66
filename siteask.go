// Package siteask provides a bounded website crawler with asset-grounded,
// streaming question answering. It crawls a site within its origin scope,
// indexes text, image, and file assets under stable identifiers, retrieves
// assets relevant to a question, and streams a generated answer as a typed
// event sequence in which the model can reference assets by id.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, gemini/).
package siteask
