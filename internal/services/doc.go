// Package services defines the ServiceAdapter contract that every backing
// service (GitHub, AWS, Vercel, Turso, Wrangler, the local system) must
// implement, plus the shared BaseAdapter implementation the concrete
// adapters embed.
//
// An adapter owns no reference to the orchestrator; it communicates
// exclusively through the event callback registered via SetEventCallback.
// All lifecycle operations take a context and may suspend on external
// process execution or network I/O.
//
// Concrete vendor adapters live in subpackages (github, aws, vercel, turso,
// wrangler, system) and are constructed through the factory subpackage.
package services
