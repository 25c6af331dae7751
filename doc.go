// Package backend provides the Yatube blog server.

// Yatube is a server-rendered blog: users publish posts (optionally in a
// group, optionally with an image), comment on them, and follow authors to
// get a personal feed. Binaries live under cmd/:

// - cmd/server: the HTTP server
// - cmd/cli: migrations, seeding, group and account administration

// The code is organized into subpackages:

// - internal/handlers: page handlers and route table
// - internal/web: HTML templates and the gin renderer
// - internal/models: Data models and database schemas
// - internal/repository: Database access for posts, groups, comments, users and follows
// - internal/auth: Accounts, session tokens and password resets
// - internal/middleware: Sessions, access guards, page cache, rate limiting, logging, metrics, tracing
// - internal/paginate: Page-number pagination
// - internal/cache: Page cache backends (Redis, in-process)
// - internal/storage: Post image storage (local disk, S3)
// - internal/email: Outbound mail (SES, log)
// - internal/database: Database connection and migrations
// - internal/config: Environment and file configuration
// - internal/validation: Startup checks for required services
// - internal/seed: Sample data

// See the individual package documentation for detailed reference.
package backend
