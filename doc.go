// Package main provides the entry point for the Crewdesk HR management backend.
// It initializes and runs a web server using the Fiber framework that exposes
// tenant-scoped HR entities (employees, contracts, payroll runs, job postings,
// coupons, meetings) through a JSON API. Storage and mail transports are
// resolved per tenant from a settings table at request time. The application
// uses gorm for data persistence.
package main
