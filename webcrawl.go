// Package webcrawl provides a bounded-concurrency recursive web crawler.
// Given a seed URL and a depth limit it downloads pages and follows their
// outbound links, visiting every URL at most once while capping the number of
// simultaneous requests globally and per host.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., crawl/, goquery/, sqlite/, rod/).
package webcrawl
